package user

import (
	"context"
	"errors"
	"strings"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/pkg/jwt"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		// GetRequester returns who the user is when asking to join a pantry.
		GetRequester(ctx context.Context, userID string, email string) (domain.Requester, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

// Register creates the account and a default pantry named after the user,
// which becomes their current pantry.
func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepository.GetUserByEmail(ctx, email); err == nil {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := &entities.User{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashed),
	}
	home := &entities.Pantry{
		ID:        uuid.New(),
		Name:      user.Name + domain.DefaultPantryNameSuffix,
		JoinToken: pantry.NewJoinToken(),
	}

	if err := s.userRepository.RegisterUser(ctx, user, home); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.RegisterResponse{}, err
	}
	home.Members = []*entities.PantryMember{{PantryID: home.ID, UserID: user.ID}}
	user.Memberships = home.Members

	log.Infow("user registered", "user_id", user.ID, "pantry_id", home.ID)
	return domain.RegisterResponse{
		User:   ToResponse(user),
		Pantry: pantry.ToPantryResponse(home, 0, true),
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateTokenUser(user.ID.String())
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		UserID:      user.ID.String(),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return ToResponse(user), nil
}

func (s *userService) GetRequester(ctx context.Context, userID string, email string) (domain.Requester, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.Requester{}, err
	}

	requester := domain.Requester{UserID: user.ID.String(), Name: user.Name}
	if email = strings.TrimSpace(email); email != "" {
		requester.Email = &email
	}
	return requester, nil
}

func (s *userService) getUser(ctx context.Context, userID string) (*entities.User, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func ToResponse(user *entities.User) domain.UserResponse {
	res := domain.UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		PantryIDs: user.PantryIDs(),
	}
	if user.CurrentPantryID != nil {
		id := user.CurrentPantryID.String()
		res.CurrentPantryID = &id
	}
	return res
}
