package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"portfolio-backend/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(project *model.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		return fmt.Errorf("create project failed: %w", err)
	}
	return nil
}

// List returns all projects with their attached skills preloaded.
func (r *ProjectRepository) List() ([]model.Project, error) {
	var projects []model.Project
	if err := r.db.Preload("Skills").Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects failed: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(id uint) (*model.Project, error) {
	var project model.Project
	err := r.db.Preload("Skills").First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project failed: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) Update(project *model.Project) error {
	if err := r.db.Save(project).Error; err != nil {
		return fmt.Errorf("update project failed: %w", err)
	}
	return nil
}

// Delete removes the project and its join rows.
func (r *ProjectRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.ProjectSkill{}).Error; err != nil {
			return fmt.Errorf("delete project skills failed: %w", err)
		}
		if err := tx.Delete(&model.Project{}, id).Error; err != nil {
			return fmt.Errorf("delete project failed: %w", err)
		}
		return nil
	})
}

// ReplaceSkills rewrites the project's skill associations.
func (r *ProjectRepository) ReplaceSkills(projectID uint, skillIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&model.ProjectSkill{}).Error; err != nil {
			return fmt.Errorf("clear project skills failed: %w", err)
		}
		if len(skillIDs) == 0 {
			return nil
		}
		rows := make([]model.ProjectSkill, 0, len(skillIDs))
		for _, skillID := range skillIDs {
			rows = append(rows, model.ProjectSkill{ProjectID: projectID, SkillID: skillID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("attach project skills failed: %w", err)
		}
		return nil
	})
}

func (r *ProjectRepository) DetachSkill(skillID uint) (bool, error) {
	result := r.db.Where("skill_id = ?", skillID).Delete(&model.ProjectSkill{})
	if result.Error != nil {
		return false, fmt.Errorf("detach skill failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
