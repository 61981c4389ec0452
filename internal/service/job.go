package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/jobboard/internal/apperror"
	"github.com/sakif/jobboard/internal/model"
	"github.com/sakif/jobboard/internal/repository"
)

// JobConfig holds the job store policy.
type JobConfig struct {
	// AllowStatusRevision lets a recipient change an answer that is already
	// accepted or rejected. When false such a change fails with AlreadyTerminal.
	AllowStatusRevision bool
}

// AccountLookup resolves usernames to accounts. *AccountStore implements it.
type AccountLookup interface {
	FindByUsername(username string) (model.Account, bool)
}

// NewJob is the input to JobStore.Create.
type NewJob struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"required,max=5000"`
	Type           string   `json:"type" validate:"required,max=100"`
	EstimatedValue *float64 `json:"estimatedValue" validate:"required,gte=0"`
	Recipients     []string `json:"recipients" validate:"required,max=50,dive,max=64"`
}

// trim trims every string and reduces Recipients to its distinct, non-empty
// entries in the order given. Recipients ends up nil when nothing is left.
func (in *NewJob) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Type = strings.TrimSpace(in.Type)

	var recipients []string
	for _, r := range in.Recipients {
		r = strings.TrimSpace(r)
		if r == "" || slices.Contains(recipients, r) {
			continue
		}
		recipients = append(recipients, r)
	}
	in.Recipients = recipients
}

// JobStore owns the list of jobs and the per-recipient status model.
type JobStore struct {
	store         repository.Store
	accounts      AccountLookup
	notifications *NotificationSink
	cfg           JobConfig
	validate      *validator.Validate
	logger        *slog.Logger

	now   func() time.Time
	newID func() string

	mu   sync.Mutex
	jobs []model.Job
}

// NewJobStore loads the stored jobs and returns the store.
func NewJobStore(ctx context.Context, store repository.Store, accounts AccountLookup, notifications *NotificationSink, cfg JobConfig, logger *slog.Logger) (*JobStore, error) {
	s := &JobStore{
		store:         store,
		accounts:      accounts,
		notifications: notifications,
		cfg:           cfg,
		validate:      newValidator(),
		logger:        logger,
		now:           time.Now,
		newID:         func() string { return xid.New().String() },
		jobs:          []model.Job{},
	}

	var loaded []model.Job
	found, err := loadBlob(ctx, store, logger, repository.KeyJobs, &loaded)
	if err != nil {
		return nil, fmt.Errorf("loading jobs: %w", err)
	}
	if found && loaded != nil {
		s.jobs = loaded
	}

	logger.Debug("jobs loaded", slog.Int("count", len(s.jobs)))
	return s, nil
}

// Create stores a new job from creator to the given recipients, every one of
// them starting as pending.
//
// creator is nil when nobody is logged in. Unknown recipients are reported
// all at once in a single UnknownRecipient error.
func (s *JobStore) Create(ctx context.Context, creator *model.Identity, in NewJob) (model.Job, error) {
	if creator == nil {
		return model.Job{}, apperror.NotAuthenticated("create a job")
	}

	in.trim()
	if err := validateInput(s.validate, in); err != nil {
		return model.Job{}, err
	}

	var unknown []string
	for _, r := range in.Recipients {
		if _, ok := s.accounts.FindByUsername(r); !ok {
			unknown = append(unknown, r)
		}
	}
	if len(unknown) > 0 {
		return model.Job{}, apperror.UnknownRecipient(unknown...)
	}

	status := make(map[string]model.RecipientStatus, len(in.Recipients))
	for _, r := range in.Recipients {
		status[r] = model.StatusPending
	}

	job := model.Job{
		ID:                 s.newID(),
		Title:              in.Title,
		Description:        in.Description,
		Type:               in.Type,
		EstimatedValue:     *in.EstimatedValue,
		CreatorID:          creator.ID,
		CreatorUsername:    creator.Username,
		RecipientUsernames: in.Recipients,
		Status:             status,
		CreatedAt:          s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.jobs), job)
	if err := s.save(ctx, next); err != nil {
		return model.Job{}, err
	}

	s.logger.Info("job created",
		slog.String("jobID", job.ID),
		slog.String("creator", job.CreatorUsername),
		slog.Int("recipients", len(job.RecipientUsernames)),
	)
	return job.Clone(), nil
}

// ListVisibleTo returns the jobs username created or received, in creation
// order.
func (s *JobStore) ListVisibleTo(username string) []model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := []model.Job{}
	for _, j := range s.jobs {
		if j.VisibleTo(username) {
			visible = append(visible, j.Clone())
		}
	}
	return visible
}

// View returns ListVisibleTo(viewer.Username) with participants resolved to
// display names and the viewer's own status attached.
func (s *JobStore) View(viewer model.Identity) []model.JobView {
	jobs := s.ListVisibleTo(viewer.Username)

	views := make([]model.JobView, 0, len(jobs))
	for _, j := range jobs {
		v := model.JobView{
			Job:        j,
			Creator:    s.participant(j.CreatorUsername),
			Recipients: make([]model.Participant, 0, len(j.RecipientUsernames)),
			CanRemove:  j.CreatorID == viewer.ID,
		}
		for _, r := range j.RecipientUsernames {
			v.Recipients = append(v.Recipients, s.participant(r))
		}
		if st, ok := j.Status[viewer.Username]; ok {
			v.MyStatus = &st
		}
		views = append(views, v)
	}
	return views
}

func (s *JobStore) participant(username string) model.Participant {
	p := model.Participant{Username: username}
	if a, ok := s.accounts.FindByUsername(username); ok {
		p.Name = a.Name
	}
	return p
}

// SetStatus records actingUsername's answer to the job.
//
// Only the recipient named by actingUsername can change their own entry.
// Changing an entry to accepted appends one notification to the creator's
// list. Setting an entry to the value it already has changes nothing.
func (s *JobStore) SetStatus(ctx context.Context, jobID, actingUsername string, status model.RecipientStatus) (model.Job, error) {
	if !status.Terminal() {
		return model.Job{}, apperror.ValidationFailed("status", "status must be accepted or rejected")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(jobID)
	if i < 0 {
		return model.Job{}, apperror.NotFound("job", jobID)
	}

	job := s.jobs[i].Clone()
	current, ok := job.Status[actingUsername]
	if !ok {
		return model.Job{}, apperror.NotARecipient(jobID, actingUsername)
	}
	if current == status {
		return job, nil
	}
	if current.Terminal() && !s.cfg.AllowStatusRevision {
		return model.Job{}, apperror.AlreadyTerminal(jobID, actingUsername, string(current))
	}

	job.Status[actingUsername] = status

	next := slices.Clone(s.jobs)
	next[i] = job
	if err := s.save(ctx, next); err != nil {
		return model.Job{}, err
	}

	s.logger.Info("job status changed",
		slog.String("jobID", job.ID),
		slog.String("recipient", actingUsername),
		slog.String("from", string(current)),
		slog.String("to", string(status)),
	)

	if status == model.StatusAccepted {
		n := model.Notification{
			Type:      model.NotificationJobAccepted,
			JobTitle:  job.Title,
			Recipient: actingUsername,
			Time:      s.now().UTC(),
		}
		// The status change is already stored; only the notice is lost.
		if err := s.notifications.Append(ctx, job.CreatorUsername, n); err != nil {
			s.logger.Error("failed to notify creator",
				slog.String("jobID", job.ID),
				slog.String("creator", job.CreatorUsername),
				slog.String("error", err.Error()),
			)
			return job.Clone(), err
		}
	}

	return job.Clone(), nil
}

// Remove deletes the job. Only its creator may do so, whatever the
// recipients answered.
func (s *JobStore) Remove(ctx context.Context, jobID, actingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(jobID)
	if i < 0 {
		return apperror.NotFound("job", jobID)
	}
	if s.jobs[i].CreatorID != actingID {
		return apperror.NotCreator(jobID)
	}

	next := slices.Delete(slices.Clone(s.jobs), i, i+1)
	if err := s.save(ctx, next); err != nil {
		return err
	}

	s.logger.Info("job removed", slog.String("jobID", jobID), slog.String("by", actingID))
	return nil
}

// ClearAll removes every job.
func (s *JobStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := len(s.jobs)
	if err := s.save(ctx, []model.Job{}); err != nil {
		return err
	}

	s.logger.Info("jobs cleared", slog.Int("count", cleared))
	return nil
}

func (s *JobStore) indexOf(jobID string) int {
	return slices.IndexFunc(s.jobs, func(j model.Job) bool { return j.ID == jobID })
}

// save writes next and, on success, makes it the current list.
// The caller holds s.mu.
func (s *JobStore) save(ctx context.Context, next []model.Job) error {
	if err := saveBlob(ctx, s.store, repository.KeyJobs, next); err != nil {
		s.logger.Error("failed to save jobs", slog.String("error", err.Error()))
		return err
	}
	s.jobs = next
	return nil
}
