package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/anonto42/socials/backend/internal/apperr"
	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/anonto42/socials/backend/internal/media"
	"github.com/anonto42/socials/backend/internal/models"
	"github.com/anonto42/socials/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const searchLimit = 20

// Mailer delivers account emails.
type Mailer interface {
	SendVerificationEmail(to, username, link string) error
	SendPasswordResetEmail(to, username, password string) error
}

// Session is the outcome of a successful login.
type Session struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// AccountService owns registration, credentials and profile fields.
type AccountService struct {
	users     repositories.UserRepository
	posts     repositories.PostRepository
	tokens    *auth.TokenManager
	mailer    Mailer
	uploader  media.Uploader
	clientURL string
}

func NewAccountService(users repositories.UserRepository, posts repositories.PostRepository, tokens *auth.TokenManager, mailer Mailer, uploader media.Uploader, clientURL string) *AccountService {
	return &AccountService{
		users:     users,
		posts:     posts,
		tokens:    tokens,
		mailer:    mailer,
		uploader:  uploader,
		clientURL: strings.TrimRight(clientURL, "/"),
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", apperr.Internal("generate token", err)
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and mails its verification link.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	token, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:          strings.TrimSpace(req.Username),
		Email:             email,
		Password:          string(hash),
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		VerificationToken: token,
	}

	link := s.clientURL + "/verify-email?token=" + token
	if err := s.mailer.SendVerificationEmail(email, user.Username, link); err != nil {
		return nil, apperr.Internal("send verification email", err)
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail marks the account holding token as verified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.BadRequest("Invalid or expired verification link.")
		}
		return err
	}
	user.IsVerified = true
	user.VerificationToken = ""
	return s.users.UpdateUser(ctx, user)
}

// Login checks credentials and issues a token pair. The refresh token is
// stored on the user so logout can revoke it.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.BadRequest("Email or password is incorrect.")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.BadRequest("Email or password is incorrect.")
	}
	if !user.IsVerified {
		return nil, apperr.BadRequest("Please verify your email before logging in.")
	}

	access, err := s.tokens.IssueAccess(user.ID.Hex())
	if err != nil {
		return nil, apperr.Internal("issue access token", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID.Hex())
	if err != nil {
		return nil, apperr.Internal("issue refresh token", err)
	}
	user.RefreshToken = refresh
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the stored refresh token.
func (s *AccountService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	user.RefreshToken = ""
	return s.users.UpdateUser(ctx, user)
}

// Refresh mints a new access token from a refresh token that is still the
// one stored on its user.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (primitive.ObjectID, string, error) {
	hexID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return primitive.NilObjectID, "", err
	}
	userID, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return primitive.NilObjectID, "", apperr.Unauthorized("Invalid or expired token.")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return primitive.NilObjectID, "", apperr.Unauthorized("Invalid or expired token.")
		}
		return primitive.NilObjectID, "", err
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return primitive.NilObjectID, "", apperr.Unauthorized("Session has been revoked. Please log in again.")
	}
	access, err := s.tokens.IssueAccess(hexID)
	if err != nil {
		return primitive.NilObjectID, "", apperr.Internal("issue access token", err)
	}
	return userID, access, nil
}

// ForgotPassword replaces the password with a random one and mails it.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	password, err := randomHex(6)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	user.Password = string(hash)
	user.RefreshToken = ""
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordResetEmail(user.Email, user.Username, password); err != nil {
		return apperr.Internal("send password email", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the old one.
func (s *AccountService) ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.BadRequest("Old password and new password are required.")
	}
	if len(newPassword) < 8 {
		return apperr.BadRequest("New password must be at least 8 characters.")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperr.BadRequest("Old password is incorrect.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	user.Password = string(hash)
	return s.users.UpdateUser(ctx, user)
}

// GetUserInfo returns the profile of targetID, or of the viewer when targetID is zero.
func (s *AccountService) GetUserInfo(ctx context.Context, viewerID, targetID primitive.ObjectID) (*models.Profile, error) {
	if targetID.IsZero() {
		targetID = viewerID
	}
	user, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, viewerID, user)
}

func (s *AccountService) profile(ctx context.Context, viewerID primitive.ObjectID, user *models.User) (*models.Profile, error) {
	total, err := s.posts.CountPostsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		User:           user,
		ProfilePicture: user.ProfilePicture.URL,
		CoverPhoto:     user.CoverPhoto.URL,
		TotalPosts:     total,
		TotalFriends:   len(user.Friends),
		IsCurrentUser:  user.ID == viewerID,
	}, nil
}

// UpdateProfilePicture stores a new picture and deletes the previous one.
func (s *AccountService) UpdateProfilePicture(ctx context.Context, userID primitive.ObjectID, file media.File) (*models.Profile, error) {
	return s.replaceMedia(ctx, userID, media.ProfilePicture, &file, func(u *models.User) *models.Media { return &u.ProfilePicture })
}

// RemoveProfilePicture clears the picture and deletes it from the object store.
func (s *AccountService) RemoveProfilePicture(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	return s.replaceMedia(ctx, userID, media.ProfilePicture, nil, func(u *models.User) *models.Media { return &u.ProfilePicture })
}

// UpdateCoverPhoto stores a new cover photo and deletes the previous one.
func (s *AccountService) UpdateCoverPhoto(ctx context.Context, userID primitive.ObjectID, file media.File) (*models.Profile, error) {
	return s.replaceMedia(ctx, userID, media.CoverPhoto, &file, func(u *models.User) *models.Media { return &u.CoverPhoto })
}

// replaceMedia swaps one media field of a user. The old object is deleted
// only after the user document points at the new one.
func (s *AccountService) replaceMedia(ctx context.Context, userID primitive.ObjectID, p media.Policy, file *media.File, field func(*models.User) *models.Media) (*models.Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var next models.Media
	if file != nil {
		if next, err = media.UploadOne(ctx, s.uploader, p, *file); err != nil {
			return nil, err
		}
	}

	slot := field(user)
	prev := *slot
	*slot = next
	if err := s.users.UpdateUser(ctx, user); err != nil {
		media.Discard(context.WithoutCancel(ctx), s.uploader, []models.Media{next})
		return nil, err
	}
	media.Discard(ctx, s.uploader, []models.Media{prev})
	return s.profile(ctx, userID, user)
}

// UpdateBio sets the profile bio.
func (s *AccountService) UpdateBio(ctx context.Context, userID primitive.ObjectID, bio string) (*models.Profile, error) {
	if blank(bio) {
		return nil, apperr.BadRequest("Bio is required.")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Bio = strings.TrimSpace(bio)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return s.profile(ctx, userID, user)
}

// SearchUsers matches keyword as a case-insensitive substring of username or email.
func (s *AccountService) SearchUsers(ctx context.Context, keyword string) ([]models.UserSummary, error) {
	if blank(keyword) {
		return nil, apperr.BadRequest("Search keyword is required.")
	}
	users, err := s.users.SearchUsers(ctx, strings.TrimSpace(keyword), searchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = users[i].ToSummary()
	}
	return out, nil
}
