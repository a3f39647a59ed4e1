package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FollowupInstruction is appended to a prompt to request a JSON answer
// carrying followup questions.
const FollowupInstruction = "\n\nAfter answering, suggest 3 short followup questions for the student.\n" +
	"Return JSON with:\n" +
	"- \"answer\": string\n" +
	"- \"followups\": list of strings\n"

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject returns the widest {...} span in s, or "" when none.
func ExtractJSONObject(s string) string {
	return jsonObjectRe.FindString(s)
}

type answerEnvelope struct {
	Answer    *string `json:"answer"`
	Followups []any   `json:"followups"`
}

// ParseAnswerWithFollowups reads {"answer","followups"} from raw model
// output. Output that is not such an object is returned whole as the answer
// with no followups.
func ParseAnswerWithFollowups(raw string) (string, []string) {
	env, ok := decodeAnswer(raw)
	if !ok {
		if obj := ExtractJSONObject(raw); obj != "" {
			env, ok = decodeAnswer(obj)
		}
	}
	if !ok || env.Answer == nil {
		return strings.TrimSpace(raw), []string{}
	}

	followups := make([]string, 0, len(env.Followups))
	for _, f := range env.Followups {
		s, isStr := f.(string)
		if !isStr {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			followups = append(followups, s)
		}
	}
	return strings.TrimSpace(*env.Answer), followups
}

func decodeAnswer(s string) (answerEnvelope, bool) {
	var env answerEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &env); err != nil {
		return answerEnvelope{}, false
	}
	return env, true
}
