package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abduss/forum/internal/paging"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	usersPerPage     = 10
	searchResultSize = 20
)

var validate = validator.New()

type accountStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, in RegisterInput) (User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, u User) error
	Search(ctx context.Context, term, exclude string, limit int) ([]User, error)
	List(ctx context.Context, q ListQuery, limit int) ([]User, int, error)
	CheckPassword(u User, password string) bool
	ChangePassword(ctx context.Context, u User, current, next string) error
	GenerateConfirmationToken(ctx context.Context, u User) (string, error)
	ConfirmEmail(ctx context.Context, u User, token string) error
	GeneratePasswordResetToken(ctx context.Context, u User) (string, error)
	ResetPassword(ctx context.Context, u User, token, next string) error
}

type mailer interface {
	SendValidationEmail(ctx context.Context, to string, userID uuid.UUID, token string) error
	SendRecoveryEmail(ctx context.Context, to string, userID uuid.UUID, token string) error
}

type pictureLookup interface {
	ProfilePicturePath(ctx context.Context, userID uuid.UUID) (string, error)
}

type sessionRevoker interface {
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// Service implements the account features around the user store.
type Service struct {
	accounts accountStore
	mail     mailer
	pictures pictureLookup
	sessions sessionRevoker
	log      *zap.Logger
}

// NewService wires a Service.
func NewService(accounts accountStore, mail mailer, pictures pictureLookup, sessions sessionRevoker) *Service {
	return &Service{
		accounts: accounts,
		mail:     mail,
		pictures: pictures,
		sessions: sessions,
		log:      zap.L().Named("user"),
	}
}

// Register creates an unconfirmed account and mails its confirmation link.
// The account is removed again when the mail cannot be sent.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	var missing []error
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, ErrEmailCannotBeNull)
	}
	if strings.TrimSpace(in.Username) == "" {
		missing = append(missing, ErrUsernameCannotBeNull)
	}
	if strings.TrimSpace(in.Password) == "" {
		missing = append(missing, ErrPasswordCannotBeNull)
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}
	if !validEmail(in.Email) {
		return ErrInvalidEmail
	}

	created, err := s.accounts.Create(ctx, in)
	if err != nil {
		return err
	}

	if err := s.sendConfirmation(ctx, created); err != nil {
		s.log.Warn("confirmation email not sent, rolling back registration",
			zap.String("user_id", created.ID.String()), zap.Error(err))
		if delErr := s.accounts.Delete(ctx, created); delErr != nil {
			return fmt.Errorf("roll back registration: %w", delErr)
		}
		return ErrEmailNotSent
	}
	return nil
}

// ResendConfirmation mails a fresh confirmation link to u.
func (s *Service) ResendConfirmation(ctx context.Context, u User) error {
	if err := s.sendConfirmation(ctx, u); err != nil {
		s.log.Warn("confirmation email not resent", zap.String("user_id", u.ID.String()), zap.Error(err))
		return ErrEmailNotSent
	}
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, u User) error {
	token, err := s.accounts.GenerateConfirmationToken(ctx, u)
	if err != nil {
		return err
	}
	return s.mail.SendValidationEmail(ctx, u.Email, u.ID, token)
}

// ConfirmEmail validates the link sent at registration.
func (s *Service) ConfirmEmail(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(token) == "" {
		return ErrFailed
	}
	u, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.accounts.ConfirmEmail(ctx, u, token)
}

// AskPasswordRecovery mails a reset link when email belongs to an account.
// Unknown addresses succeed silently so callers cannot probe for accounts.
func (s *Service) AskPasswordRecovery(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	u, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := s.accounts.GeneratePasswordResetToken(ctx, u)
	if err != nil {
		return err
	}
	if err := s.mail.SendRecoveryEmail(ctx, u.Email, u.ID, token); err != nil {
		s.log.Warn("recovery email not sent", zap.String("user_id", u.ID.String()), zap.Error(err))
		return ErrEmailNotSent
	}
	return nil
}

// RecoverPassword sets a new password using a reset token.
func (s *Service) RecoverPassword(ctx context.Context, userID, token, password string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(token) == "" || strings.TrimSpace(password) == "" {
		return ErrFailed
	}
	u, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.accounts.ResetPassword(ctx, u, token, password)
}

// GetProfile returns the public profile of username. The email is only
// disclosed to the owner and to administrators.
func (s *Service) GetProfile(ctx context.Context, username, viewer string) (Profile, error) {
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	profile, err := s.profileOf(ctx, u)
	if err != nil {
		return Profile{}, err
	}

	if viewer != "" && viewer == u.Username {
		profile.Email = u.Email
	} else if viewer != "" {
		if v, err := s.accounts.FindByUsername(ctx, viewer); err == nil && v.Role.AtLeast(RoleAdmin) {
			profile.Email = u.Email
		}
	}
	return profile, nil
}

// ProfileByID resolves an author reference. Missing users yield UnknownProfile.
func (s *Service) ProfileByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	u, err := s.accounts.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UnknownProfile(), nil
		}
		return Profile{}, err
	}
	return s.profileOf(ctx, u)
}

func (s *Service) profileOf(ctx context.Context, u User) (Profile, error) {
	picture, err := s.pictures.ProfilePicturePath(ctx, u.ID)
	if err != nil {
		return Profile{}, err
	}
	if picture == "" {
		picture = DefaultProfilePicture
	}
	return Profile{
		ID:             u.ID.String(),
		Username:       u.Username,
		Description:    u.Description,
		Role:           u.Role,
		RoleName:       u.Role.Name(),
		ProfilePicture: picture,
		IsBanned:       u.IsBanned,
	}, nil
}

// UpdatePassword changes the caller's password.
func (s *Service) UpdatePassword(ctx context.Context, username, current, next string) error {
	if strings.TrimSpace(current) == "" || strings.TrimSpace(next) == "" {
		return ErrPasswordCannotBeNull
	}
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.accounts.ChangePassword(ctx, u, current, next)
}

// UpdateProfile edits target's profile. Owners may change their email and
// description. Administrators may edit anyone, rename them, change their role
// or ban flag.
func (s *Service) UpdateProfile(ctx context.Context, requester, target string, upd ProfileUpdate) error {
	req, err := s.requester(ctx, requester)
	if err != nil {
		return err
	}
	admin := req.Role.AtLeast(RoleAdmin)
	u := req
	if target != requester {
		if !admin {
			return ErrUserNotAuthorized
		}
		if u, err = s.accounts.FindByUsername(ctx, target); err != nil {
			return err
		}
	}
	if !admin && upd.touchesAdminFields(u) {
		return ErrUserNotAuthorized
	}

	if email := strings.TrimSpace(upd.Email); email != "" && !strings.EqualFold(email, u.Email) {
		if !validEmail(email) {
			return ErrInvalidEmail
		}
		u.Email = strings.ToLower(email)
	}
	u.Description = upd.Description
	if name := strings.TrimSpace(upd.Username); name != "" {
		u.Username = name
	}
	if upd.Role != RoleGuest {
		if upd.Role < RoleGuest || upd.Role > RoleAdmin {
			return ErrInvalidRole
		}
		u.Role = upd.Role
	}
	if upd.IsBanned != nil {
		u.IsBanned = *upd.IsBanned
	}
	return s.accounts.Update(ctx, u)
}

// DeleteAccount anonymizes the caller's account after checking the password
// and revokes its refresh tokens. Posts and messages keep their author id.
func (s *Service) DeleteAccount(ctx context.Context, username, password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordCannotBeNull
	}
	u, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !s.accounts.CheckPassword(u, password) {
		return ErrIncorrectPassword
	}

	u.Username = "DeletedUser-" + uuid.NewString()
	u.Email = "deleted-" + uuid.NewString() + "@deleted.com"
	u.PasswordHash = ""
	u.Role = RoleGuest
	u.Description = ""
	if err := s.accounts.Update(ctx, u); err != nil {
		return err
	}
	return s.sessions.DeleteByUserID(ctx, u.ID)
}

// Search finds users by partial username, excluding the caller.
func (s *Service) Search(ctx context.Context, term, requester string) ([]Profile, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrFailed
	}
	users, err := s.accounts.Search(ctx, strings.TrimSpace(term), requester, searchResultSize)
	if err != nil {
		return nil, err
	}
	return s.profilesOf(ctx, users)
}

// UpdateBan sets the ban flag of target. Moderators and administrators only.
func (s *Service) UpdateBan(ctx context.Context, requester, target string, banned bool) error {
	req, err := s.requester(ctx, requester)
	if err != nil {
		return err
	}
	if !req.Role.AtLeast(RoleModerator) {
		return ErrUserNotAuthorized
	}
	u, err := s.accounts.FindByUsername(ctx, target)
	if err != nil {
		return err
	}
	u.IsBanned = banned
	return s.accounts.Update(ctx, u)
}

// ListUsers returns one page of users for the administration screen.
func (s *Service) ListUsers(ctx context.Context, requester string, q ListQuery) (Page, error) {
	req, err := s.requester(ctx, requester)
	if err != nil {
		return Page{}, err
	}
	if !req.Role.AtLeast(RoleAdmin) {
		return Page{}, ErrUserNotAuthorized
	}
	q.Page = paging.Bound(q.Page, usersPerPage)
	if q.Filter < FilterAll || q.Filter > FilterBanned {
		q.Filter = FilterAll
	}

	users, count, err := s.accounts.List(ctx, q, usersPerPage)
	if err != nil {
		return Page{}, err
	}
	if paging.Beyond(q.Page, count, usersPerPage) {
		q.Page = paging.Last(count, usersPerPage)
		if users, count, err = s.accounts.List(ctx, q, usersPerPage); err != nil {
			return Page{}, err
		}
	}
	profiles, err := s.profilesOf(ctx, users)
	if err != nil {
		return Page{}, err
	}
	for i, u := range users {
		profiles[i].Email = u.Email
	}
	return Page{Count: count, Users: profiles}, nil
}

func (s *Service) profilesOf(ctx context.Context, users []User) ([]Profile, error) {
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		p, err := s.profileOf(ctx, u)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func validEmail(raw string) bool {
	return validate.Var(strings.TrimSpace(raw), "required,email") == nil
}

// requester resolves the caller of a privileged operation. A caller that no
// longer exists is not authorized; store failures pass through.
func (s *Service) requester(ctx context.Context, username string) (User, error) {
	u, err := s.accounts.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrUserNotAuthorized
	}
	return u, err
}
