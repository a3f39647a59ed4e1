package learning

// PrerequisiteNode is one concept in a session's prerequisite tree. ParentID,
// when set, always points at a node of the same session.
type PrerequisiteNode struct {
	ID               int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID        int64            `gorm:"index;not null" json:"session_id"`
	Session          *LearningSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	ParentID         *int64           `gorm:"index;column:parent_id" json:"parent_id"`
	Name             string           `gorm:"not null" json:"name"`
	Description      *string          `gorm:"column:description" json:"description"`
	WikipediaSummary *string          `gorm:"column:wikipedia_summary" json:"wikipedia_summary"`
	WikipediaURL     *string          `gorm:"column:wikipedia_url" json:"wikipedia_url"`
}

func (PrerequisiteNode) TableName() string { return "prerequisite_node" }
