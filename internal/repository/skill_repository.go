package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"portfolio-backend/internal/model"
)

type SkillRepository struct {
	db *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

func (r *SkillRepository) Create(skill *model.Skill) error {
	if err := r.db.Create(skill).Error; err != nil {
		return fmt.Errorf("create skill failed: %w", err)
	}
	return nil
}

func (r *SkillRepository) List() ([]model.Skill, error) {
	var skills []model.Skill
	if err := r.db.Order("rating DESC").Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list skills failed: %w", err)
	}
	return skills, nil
}

// Top returns the highest-rated skills, at most limit of them.
func (r *SkillRepository) Top(limit int) ([]model.Skill, error) {
	if limit <= 0 {
		limit = 6
	}
	var skills []model.Skill
	if err := r.db.Order("rating DESC").Limit(limit).Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list top skills failed: %w", err)
	}
	return skills, nil
}

func (r *SkillRepository) GetByID(id uint) (*model.Skill, error) {
	var skill model.Skill
	err := r.db.First(&skill, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get skill failed: %w", err)
	}
	return &skill, nil
}

func (r *SkillRepository) Update(skill *model.Skill) error {
	if err := r.db.Save(skill).Error; err != nil {
		return fmt.Errorf("update skill failed: %w", err)
	}
	return nil
}

func (r *SkillRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Skill{}, id).Error; err != nil {
		return fmt.Errorf("delete skill failed: %w", err)
	}
	return nil
}

// IsAttached reports whether any project references the skill.
func (r *SkillRepository) IsAttached(skillID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.ProjectSkill{}).Where("skill_id = ?", skillID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count skill attachments failed: %w", err)
	}
	return count > 0, nil
}
