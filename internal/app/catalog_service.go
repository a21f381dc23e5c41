package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio-backend/internal/model"
	"portfolio-backend/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProjectNotFound = errors.New("project not found")
	ErrSkillNotFound   = errors.New("skill not found")
	ErrSkillAttached   = errors.New("skill is attached to a project")
)

const topSkillCount = 6

type CatalogService struct {
	projectRepo *repository.ProjectRepository
	skillRepo   *repository.SkillRepository
	imageDir    string
	logger      *zap.Logger
}

func NewCatalogService(
	projectRepo *repository.ProjectRepository,
	skillRepo *repository.SkillRepository,
	imageDir string,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		projectRepo: projectRepo,
		skillRepo:   skillRepo,
		imageDir:    imageDir,
		logger:      logger,
	}
}

// PortfolioDetails is the landing-page payload: every project with its
// skills, plus the highest-rated skills.
type PortfolioDetails struct {
	Projects  []model.Project `json:"projects"`
	TopSkills []model.Skill   `json:"top_skills"`
}

func (s *CatalogService) Details() (*PortfolioDetails, error) {
	projects, err := s.projectRepo.List()
	if err != nil {
		return nil, err
	}
	topSkills, err := s.skillRepo.Top(topSkillCount)
	if err != nil {
		return nil, err
	}
	return &PortfolioDetails{Projects: projects, TopSkills: topSkills}, nil
}

type ProjectInput struct {
	Name        string
	Description string
	DemoLink    string
	GithubLink  string
	SkillIDs    []uint
	ImageName   string
	Image       io.Reader
}

func (s *CatalogService) ListProjects() ([]model.Project, error) {
	return s.projectRepo.List()
}

func (s *CatalogService) GetProject(id uint) (*model.Project, error) {
	project, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *CatalogService) CreateProject(input ProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	imagePath := ""
	if input.Image != nil {
		saved, err := s.saveImage(input.ImageName, input.Image)
		if err != nil {
			return nil, err
		}
		imagePath = saved
	}

	project := &model.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Image:       imagePath,
		DemoLink:    strings.TrimSpace(input.DemoLink),
		GithubLink:  strings.TrimSpace(input.GithubLink),
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}
	if len(input.SkillIDs) > 0 {
		if err := s.projectRepo.ReplaceSkills(project.ID, input.SkillIDs); err != nil {
			return nil, err
		}
	}
	return s.GetProject(project.ID)
}

// UpdateProject rewrites the project. A new image replaces the old file on
// disk; a failed removal of the old file is logged and does not abort the
// update, matching upload-and-replace semantics.
func (s *CatalogService) UpdateProject(id uint, input ProjectInput) (*model.Project, error) {
	project, err := s.projectRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	if input.Image != nil {
		s.removeImage(project.Image)
		saved, err := s.saveImage(input.ImageName, input.Image)
		if err != nil {
			return nil, err
		}
		project.Image = saved
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		project.Name = name
	}
	project.Description = strings.TrimSpace(input.Description)
	project.DemoLink = strings.TrimSpace(input.DemoLink)
	project.GithubLink = strings.TrimSpace(input.GithubLink)
	project.Skills = nil

	if err := s.projectRepo.Update(project); err != nil {
		return nil, err
	}
	if input.SkillIDs != nil {
		if err := s.projectRepo.ReplaceSkills(project.ID, input.SkillIDs); err != nil {
			return nil, err
		}
	}
	return s.GetProject(project.ID)
}

func (s *CatalogService) DeleteProject(id uint) error {
	project, err := s.projectRepo.GetByID(id)
	if err != nil {
		return err
	}
	if project == nil {
		return ErrProjectNotFound
	}
	s.removeImage(project.Image)
	return s.projectRepo.Delete(id)
}

func (s *CatalogService) ListSkills() ([]model.Skill, error) {
	return s.skillRepo.List()
}

func (s *CatalogService) GetSkill(id uint) (*model.Skill, error) {
	skill, err := s.skillRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, ErrSkillNotFound
	}
	return skill, nil
}

func (s *CatalogService) CreateSkill(name string, rating int) (*model.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" || rating < 0 {
		return nil, ErrInvalidInput
	}
	skill := &model.Skill{Name: name, Rating: rating}
	if err := s.skillRepo.Create(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *CatalogService) UpdateSkill(id uint, name string, rating int) (*model.Skill, error) {
	skill, err := s.skillRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, ErrSkillNotFound
	}
	if name = strings.TrimSpace(name); name != "" {
		skill.Name = name
	}
	if rating >= 0 {
		skill.Rating = rating
	}
	if err := s.skillRepo.Update(skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// DeleteSkill refuses to remove a skill that is still attached to a project.
func (s *CatalogService) DeleteSkill(id uint) error {
	skill, err := s.skillRepo.GetByID(id)
	if err != nil {
		return err
	}
	if skill == nil {
		return ErrSkillNotFound
	}
	attached, err := s.skillRepo.IsAttached(id)
	if err != nil {
		return err
	}
	if attached {
		return ErrSkillAttached
	}
	return s.skillRepo.Delete(id)
}

func (s *CatalogService) DetachSkill(skillID uint) error {
	detached, err := s.projectRepo.DetachSkill(skillID)
	if err != nil {
		return err
	}
	if !detached {
		return ErrSkillNotFound
	}
	return nil
}

func (s *CatalogService) saveImage(originalName string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir failed: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.imageDir, uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file failed: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write image file failed: %w", err)
	}
	return path, nil
}

func (s *CatalogService) removeImage(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("remove old image failed", zap.String("path", path), zap.Error(err))
	}
}
