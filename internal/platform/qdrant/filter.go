package qdrant

func matchValue(key string, value any) map[string]any {
	return map[string]any{
		"key": key,
		"match": map[string]any{
			"value": value,
		},
	}
}

func matchText(key, text string) map[string]any {
	return map[string]any{
		"key": key,
		"match": map[string]any{
			"text": text,
		},
	}
}

// chunkFilter scopes a scroll to one material (and optionally one topic).
// Any one term appearing in the content is enough to be a candidate.
func chunkFilter(materialID int64, topicID *int64, terms []string) map[string]any {
	must := []any{matchValue(payloadMaterialID, materialID)}
	if topicID != nil {
		must = append(must, matchValue(payloadTopicID, *topicID))
	}
	filter := map[string]any{"must": must}
	if len(terms) > 0 {
		should := make([]any, 0, len(terms))
		for _, t := range terms {
			should = append(should, matchText(payloadContent, t))
		}
		filter["should"] = should
	}
	return filter
}
