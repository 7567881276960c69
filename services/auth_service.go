package services

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"time"

	"qpgen/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	email     *EmailService
}

func NewAuthService(db *gorm.DB, jwtSecret string, email *EmailService) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret, email: email}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	User    models.User     `json:"user"`
	Profile *models.Faculty `json:"faculty_profile,omitempty"`
}

// Login verifies credentials and issues a signed token carrying the user's
// id and role.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	err := s.db.Scopes(models.Active).Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &AuthorizationError{Detail: "invalid email or password"}
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, &AuthorizationError{Detail: "invalid email or password"}
	}

	token, err := s.issueToken(&user)
	if err != nil {
		return nil, err
	}

	resp := &LoginResponse{Token: token, User: user}
	if user.UserType == models.UserTypeFaculty {
		var faculty models.Faculty
		if err := s.db.Where("user_id = ?", user.ID).First(&faculty).Error; err == nil {
			resp.Profile = &faculty
		}
	}
	return resp, nil
}

// Profile returns the current user with any faculty profile attached.
func (s *AuthService) Profile(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("FacultyProfile").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: userID}
		}
		return nil, err
	}
	return &user, nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (s *AuthService) ChangePassword(userID uint, req *ChangePasswordRequest) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return &NotFoundError{Entity: "user", ID: userID}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return &AuthorizationError{Detail: "current password is incorrect"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", string(hash)).Error
}

type CreateFacultyRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FacultyName string `json:"faculty_name" binding:"required"`
	EmpID       string `json:"emp_id" binding:"required"`
	BranchID    uint   `json:"branch_id" binding:"required"`
	Honorific   string `json:"honorific"`
	PhoneNumber string `json:"phone_number"`
}

// CreateFaculty creates the account and the faculty profile in one
// transaction; either both rows exist afterwards or neither does. The
// credentials mail goes out after commit and is best-effort.
func (s *AuthService) CreateFaculty(req *CreateFacultyRequest) (*models.Faculty, error) {
	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, &ValidationError{Field: "email", Detail: "a user with this email already exists"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	plainPassword, err := GeneratePassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var faculty models.Faculty
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Email:    req.Email,
			Password: string(hash),
			UserType: models.UserTypeFaculty,
			IsActive: true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		honorific := req.Honorific
		if honorific == "" {
			honorific = "Mr."
		}
		faculty = models.Faculty{
			UserID:      user.ID,
			BranchID:    req.BranchID,
			Honorific:   honorific,
			FacultyName: req.FacultyName,
			EmpID:       req.EmpID,
			PhoneNumber: req.PhoneNumber,
			IsActive:    true,
		}
		return tx.Create(&faculty).Error
	})
	if err != nil {
		return nil, &PersistenceError{Detail: "could not create faculty account", Err: err}
	}

	// Best-effort only; the committed account is not rolled back on a mail
	// failure.
	if s.email != nil {
		if err := s.email.SendFacultyCredentials(req.Email, req.FacultyName, plainPassword); err != nil {
			log.Printf("Could not send credentials email to %s: %v", req.Email, err)
		}
	}

	return &faculty, nil
}

type tokenClaims struct {
	UserID   uint   `json:"user_id"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	claims := tokenClaims{
		UserID:   user.ID,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

const passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#$%&*!"

// GeneratePassword builds a random password from a mixed character set using
// crypto/rand.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordChars))))
		if err != nil {
			return "", err
		}
		password[i] = passwordChars[n.Int64()]
	}
	return string(password), nil
}
