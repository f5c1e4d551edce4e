package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"devmatch/internal/config"
	"devmatch/internal/domain"
	"devmatch/internal/domain/models"
	"devmatch/internal/domain/repositories"
	"devmatch/internal/domain/services"
)

// projectService implements services.ProjectService
type projectService struct {
	projectRepo repositories.ProjectRepository
	logger      *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// CreateProject creates a new project
func (s *projectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Skills = normalizeSkills(req.Skills)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project := &models.Project{
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Skills:      req.Skills,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"title", project.Title,
		"owner_id", req.OwnerID,
	)

	return project, nil
}

// GetProject retrieves a project by ID
func (s *projectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects retrieves all projects owned by a user
func (s *projectService) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Deck returns other owners' projects the actor has not swiped on
func (s *projectService) Deck(ctx context.Context, actorID string, limit int) ([]models.Project, error) {
	return s.projectRepo.ListUnswiped(ctx, actorID, clampDeck(limit))
}

func (s *projectService) validateCreateRequest(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.OwnerID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, config.MaxProjectTitleLength)),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxBioLength)),
		validation.Field(&req.Skills, validation.Length(0, config.MaxSkills),
			validation.Each(validation.RuneLength(1, config.MaxSkillLength))),
	)
}
