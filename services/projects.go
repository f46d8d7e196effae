package services

import (
	"errors"
	"fmt"
	"log"

	"collabdev/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ProjectService covers the project side of the core flows: creation, the
// one-shot complexity grading that prices the unlock, and lifecycle moves.
type ProjectService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewProjectService(db *gorm.DB, notifier Notifier) *ProjectService {
	return &ProjectService{DB: db, Notifier: notifier}
}

// Create registers a new project proposal by a contributor.
func (s *ProjectService) Create(creatorID, title, description, domain, specURL string) (*models.Project, error) {
	var creator models.User
	if err := s.DB.First(&creator, "id = ?", creatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("user", creatorID)
		}
		return nil, err
	}

	project := models.Project{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        s.uniqueSlug(title),
		Description: description,
		Domain:      domain,
		SpecURL:     specURL,
		Status:      models.ProjectStatusPending,
		CreatorID:   creatorID,
	}
	if err := s.DB.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// uniqueSlug derives a URL slug from the title, suffixing on collision.
func (s *ProjectService) uniqueSlug(title string) string {
	base := slug.Make(title)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		if err := s.DB.Model(&models.Project{}).Where("slug = ?", candidate).Count(&count).Error; err != nil || count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// AssignLevel grades a project's complexity. The level is assigned at most
// once, by an administrator, and the creator is notified.
func (s *ProjectService) AssignLevel(projectID, adminID string, level models.ProjectLevel) (*models.Project, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("project", projectID)
		}
		return nil, err
	}
	var admin models.User
	err := s.DB.Where("id = ? AND kind = ?", adminID, models.UserKindAdministrator).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("administrator", adminID)
	}
	if err != nil {
		return nil, err
	}

	switch level {
	case models.ProjectLevelBeginner, models.ProjectLevelIntermediate,
		models.ProjectLevelAdvanced, models.ProjectLevelExpert:
	default:
		return nil, InvalidStateError(fmt.Sprintf("unknown project level %q", level))
	}
	if project.Level != nil {
		return nil, InvalidStateError("project already has a level assigned")
	}

	project.Level = &level
	project.ValidatorID = &adminID
	if err := s.DB.Save(&project).Error; err != nil {
		return nil, err
	}

	if err := s.Notifier.Notify(project.CreatorID,
		"Niveau de complexité attribué",
		fmt.Sprintf("Le niveau de complexité '%s' a été attribué à votre projet '%s'.", level, project.Title),
	); err != nil {
		log.Printf("level notification failed for %s: %v", project.CreatorID, err)
	}
	return &project, nil
}

// Start moves an open project to in-progress and notifies its participants.
func (s *ProjectService) Start(projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("project", projectID)
		}
		return nil, err
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, InvalidStateError("project must be open to start")
	}

	project.Status = models.ProjectStatusInProgress
	if err := s.DB.Save(&project).Error; err != nil {
		return nil, err
	}

	var participants []models.Participant
	if err := s.DB.Where("project_id = ? AND status = ?", projectID, models.ParticipantStatusAccepted).
		Find(&participants).Error; err == nil {
		for _, p := range participants {
			if err := s.Notifier.Notify(p.ContributorID,
				"Projet démarré",
				fmt.Sprintf("Le projet '%s' a démarré.", project.Title),
			); err != nil {
				log.Printf("start notification failed for %s: %v", p.ContributorID, err)
			}
		}
	}
	return &project, nil
}

// Open publishes a pending project so contributors can request to join.
func (s *ProjectService) Open(projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("project", projectID)
		}
		return nil, err
	}
	if project.Status != models.ProjectStatusPending {
		return nil, InvalidStateError("project must be pending to open")
	}
	project.Status = models.ProjectStatusOpen
	if err := s.DB.Save(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// AddFeature appends a work item to a project.
func (s *ProjectService) AddFeature(projectID, title, content string) (*models.Feature, error) {
	var count int64
	if err := s.DB.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("project", projectID)
	}

	feature := models.Feature{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     title,
		Content:   content,
		Status:    models.FeatureStatusTodo,
	}
	if err := s.DB.Create(&feature).Error; err != nil {
		return nil, err
	}
	return &feature, nil
}

// Get returns a single project.
func (s *ProjectService) Get(id string) (*models.Project, error) {
	var project models.Project
	if err := s.DB.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("project", id)
		}
		return nil, err
	}
	return &project, nil
}

// List returns projects, optionally filtered by status.
func (s *ProjectService) List(status models.ProjectStatus) ([]models.Project, error) {
	query := s.DB.Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var projects []models.Project
	err := query.Find(&projects).Error
	return projects, err
}

// ListFeatures returns a project's features.
func (s *ProjectService) ListFeatures(projectID string) ([]models.Feature, error) {
	var count int64
	if err := s.DB.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, NotFoundError("project", projectID)
	}

	var features []models.Feature
	err := s.DB.Where("project_id = ?", projectID).Order("created_at ASC").Find(&features).Error
	return features, err
}
