package services

import (
	"errors"
	"fmt"

	"collabdev/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService handles registration, login and account state. Registration is
// the only place a balance is initialized; everything after goes through the
// ledger.
type UserService struct {
	DB    *gorm.DB
	Rules *CoinRuleService
}

func NewUserService(db *gorm.DB, rules *CoinRuleService) *UserService {
	return &UserService{DB: db, Rules: rules}
}

// RegisterInput is the payload accepted at signup.
type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Register creates a contributor account with the configured signup coin
// grant and starting experience.
func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, InvalidStateError("email is already in use")
	}
	if in.Phone != "" {
		if err := s.DB.Model(&models.User{}).Where("phone = ?", in.Phone).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, InvalidStateError("phone number is already in use")
		}
	}

	grant, err := s.Rules.ValueFor(models.CoinEventSignup)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Kind:      models.UserKindContributor,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  in.Password,
		Active:    true,
		TotalCoin: grant,
		PointExp:  10,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks credentials and account state. The gateway in front of this
// service owns the actual session; this only verifies the pair.
func (s *UserService) Login(email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unknown email: %w", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.Password != password {
		return nil, fmt.Errorf("wrong password: %w", ErrUnauthorized)
	}
	if !user.Active {
		return nil, fmt.Errorf("account disabled: %w", ErrUnauthorized)
	}
	return &user, nil
}

// Get returns a user by id.
func (s *UserService) Get(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("user", id)
		}
		return nil, err
	}
	return &user, nil
}

// ListContributors returns all contributor accounts.
func (s *UserService) ListContributors() ([]models.User, error) {
	var users []models.User
	err := s.DB.Where("kind = ?", models.UserKindContributor).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// SetActive toggles an account on or off.
func (s *UserService) SetActive(id string, active bool) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.DB.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile edits a contributor's identity fields.
func (s *UserService) UpdateProfile(id, firstName, lastName, phone, email string) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.Phone = phone
	user.Email = email
	if err := s.DB.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
