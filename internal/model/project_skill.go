package model

// ProjectSkill is the join row between projects and skills.
type ProjectSkill struct {
	ProjectID uint `gorm:"primaryKey" json:"project_id"`
	SkillID   uint `gorm:"primaryKey" json:"skill_id"`
}
