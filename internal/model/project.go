package model

import "time"

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Image       string    `gorm:"size:512" json:"image"`
	DemoLink    string    `gorm:"size:512" json:"demo_link"`
	GithubLink  string    `gorm:"size:512" json:"github_link"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Skills []Skill `gorm:"many2many:project_skills;" json:"skills,omitempty"`
}
