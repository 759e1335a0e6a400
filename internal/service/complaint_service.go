package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/ai"
	"complaint-service/internal/dashboard"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/realtime"
	"complaint-service/internal/repository"
)

// Text limits for citizen input, in characters.
const (
	MaxIssueLength    = 2000
	MaxLocationLength = 500
)

const (
	resolutionPrefix = "resolution-"

	noteSubmitted          = "submitted"
	noteResolved           = "resolution verified"
	noteDenied             = "denied by employee"
	noteResolutionRejected = "resolution rejected: "
)

type ComplaintStore interface {
	Create(ctx context.Context, complaint *model.Complaint, entry *model.ComplaintStatusLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
	List(ctx context.Context, filter repository.ComplaintFilter) ([]model.Complaint, error)
	ListAll(ctx context.Context) ([]model.Complaint, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, t repository.Transition) (*model.Complaint, error)
	History(ctx context.Context, id uuid.UUID) ([]model.ComplaintStatusLog, error)
}

type BlobStore interface {
	Upload(ctx context.Context, prefix, ext string, data []byte) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
	Remove(ctx context.Context, url string) error
}

type Drafter interface {
	DraftComplaint(ctx context.Context, photo media.Image, locationDescription string) (*ai.Draft, error)
}

type Verifier interface {
	VerifyResolution(ctx context.Context, original, resolution media.Image, issueDescription string) (*ai.Verdict, error)
}

type ComplaintService struct {
	store     ComplaintStore
	blobs     BlobStore
	drafter   Drafter
	verifier  Verifier
	images    *media.Validator
	publisher realtime.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

func NewComplaintService(
	store ComplaintStore,
	blobs BlobStore,
	drafter Drafter,
	verifier Verifier,
	images *media.Validator,
	publisher realtime.Publisher,
	log zerolog.Logger,
) *ComplaintService {
	if publisher == nil {
		publisher = realtime.Discard
	}
	return &ComplaintService{
		store:     store,
		blobs:     blobs,
		drafter:   drafter,
		verifier:  verifier,
		images:    images,
		publisher: publisher,
		log:       log.With().Str("component", "complaint_service").Logger(),
		now:       time.Now,
	}
}

type DraftInput struct {
	Photo               io.Reader
	LocationDescription string
}

type SubmitInput struct {
	Photo               io.Reader
	Issue               string
	LocationDescription string
	Latitude            float64
	Longitude           float64
	Category            *model.ComplaintCategory
}

type ListOptions struct {
	Statuses    []model.ComplaintStatus
	Categories  []model.ComplaintCategory
	Departments []model.Department
	Search      string
	Limit       int
	Offset      int
}

// ResolveResult is the outcome of a resolution attempt. Reasoning is set
// when verification rejected the photo and the complaint went to review.
type ResolveResult struct {
	Complaint *model.Complaint `json:"complaint"`
	Resolved  bool             `json:"resolved"`
	Reasoning string           `json:"reasoning,omitempty"`
}

type PublicBoard struct {
	Active   []model.Complaint `json:"active"`
	InReview []model.Complaint `json:"in_review"`
	Resolved []model.Complaint `json:"resolved"`
	Denied   []model.Complaint `json:"denied"`
	Counts   PublicCounts      `json:"counts"`
}

type PublicCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	InReview int `json:"in_review"`
	Resolved int `json:"resolved"`
	Denied   int `json:"denied"`
}

func (s *ComplaintService) Draft(ctx context.Context, input DraftInput) (*ai.Draft, error) {
	photo, err := s.images.Read(input.Photo)
	if err != nil {
		return nil, err
	}
	location, err := checkLocation(input.LocationDescription)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafter.DraftComplaint(ctx, photo, location)
	if err != nil {
		return nil, external(ExternalDrafting, err)
	}
	return draft, nil
}

func (s *ComplaintService) Submit(ctx context.Context, input SubmitInput) (*model.Complaint, error) {
	photo, err := s.images.Read(input.Photo)
	if err != nil {
		return nil, err
	}
	issue := strings.TrimSpace(input.Issue)
	if issue == "" {
		return nil, invalid("issue is required")
	}
	if utf8.RuneCountInString(issue) > MaxIssueLength {
		return nil, invalid("issue must be at most %d characters", MaxIssueLength)
	}
	location, err := checkLocation(input.LocationDescription)
	if err != nil {
		return nil, err
	}
	if !validCoordinate(input.Latitude, 90) {
		return nil, invalid("latitude must be between -90 and 90")
	}
	if !validCoordinate(input.Longitude, 180) {
		return nil, invalid("longitude must be between -180 and 180")
	}

	complaint := &model.Complaint{
		Issue:               issue,
		LocationDescription: location,
		Latitude:            input.Latitude,
		Longitude:           input.Longitude,
		Status:              model.StatusNew,
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, invalid("unknown category %q", *input.Category)
		}
		category := *input.Category
		department := model.DepartmentFor(category)
		complaint.Category = &category
		complaint.Department = &department
	}

	url, err := s.blobs.Upload(ctx, "", photo.Extension, photo.Data)
	if err != nil {
		return nil, external(ExternalBlobStore, err)
	}
	complaint.ImageURL = url

	entry := &model.ComplaintStatusLog{
		NewStatus: model.StatusNew,
		Note:      noteSubmitted,
	}
	if err := s.store.Create(ctx, complaint, entry); err != nil {
		s.discardBlob(url)
		return nil, external(ExternalDatabase, err)
	}

	s.log.Info().
		Str("complaint_id", complaint.ID.String()).
		Int64("complaint_number", complaint.Number).
		Msg("complaint submitted")
	s.publisher.Publish(realtime.InsertEvent(*complaint))

	return complaint, nil
}

// Resolve verifies the resolution photo against the original before
// anything is stored. A rejected photo moves the complaint to review.
func (s *ComplaintService) Resolve(ctx context.Context, principal model.Principal, id uuid.UUID, photo io.Reader) (*ResolveResult, error) {
	resolution, err := s.images.Read(photo)
	if err != nil {
		return nil, err
	}

	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !complaint.Status.CanResolve() {
		return nil, statusError(complaint.Status)
	}

	originalData, err := s.blobs.Fetch(ctx, complaint.ImageURL)
	if err != nil {
		return nil, external(ExternalBlobStore, err)
	}
	original, err := media.Detect(originalData)
	if err != nil {
		return nil, external(ExternalBlobStore, err)
	}

	verdict, err := s.verifier.VerifyResolution(ctx, original, resolution, complaint.Issue)
	if err != nil {
		return nil, external(ExternalVerification, err)
	}

	changedBy := principal.EmployeeID
	if !verdict.IsResolvedCorrectly {
		updated, err := s.store.ApplyTransition(ctx, id, repository.Transition{
			To:        model.StatusInReview,
			Note:      noteResolutionRejected + verdict.Reasoning,
			ChangedBy: &changedBy,
		})
		if err != nil {
			return nil, s.storeError(err)
		}
		s.log.Info().
			Str("complaint_id", id.String()).
			Str("reasoning", verdict.Reasoning).
			Msg("resolution rejected, complaint moved to review")
		s.publisher.Publish(realtime.UpdateEvent(*updated))
		return &ResolveResult{Complaint: updated, Resolved: false, Reasoning: verdict.Reasoning}, nil
	}

	url, err := s.blobs.Upload(ctx, resolutionPrefix, resolution.Extension, resolution.Data)
	if err != nil {
		return nil, external(ExternalBlobStore, err)
	}

	resolvedAt := s.now().UTC()
	updated, err := s.store.ApplyTransition(ctx, id, repository.Transition{
		To:                 model.StatusResolved,
		ResolutionImageURL: &url,
		ResolvedAt:         &resolvedAt,
		Note:               noteResolved,
		ChangedBy:          &changedBy,
	})
	if err != nil {
		s.discardBlob(url)
		return nil, s.storeError(err)
	}

	s.log.Info().Str("complaint_id", id.String()).Msg("complaint resolved")
	s.publisher.Publish(realtime.UpdateEvent(*updated))
	return &ResolveResult{Complaint: updated, Resolved: true}, nil
}

func (s *ComplaintService) Deny(ctx context.Context, principal model.Principal, id uuid.UUID, confirmed bool) (*model.Complaint, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	complaint, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !complaint.Status.CanDeny() {
		return nil, statusError(complaint.Status)
	}

	changedBy := principal.EmployeeID
	updated, err := s.store.ApplyTransition(ctx, id, repository.Transition{
		To:        model.StatusDenied,
		Note:      noteDenied,
		ChangedBy: &changedBy,
	})
	if err != nil {
		return nil, s.storeError(err)
	}

	s.log.Info().Str("complaint_id", id.String()).Msg("complaint denied")
	s.publisher.Publish(realtime.UpdateEvent(*updated))
	return updated, nil
}

func (s *ComplaintService) List(ctx context.Context, opts ListOptions) ([]model.Complaint, error) {
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, invalid("unknown status %q", st)
		}
	}
	for _, c := range opts.Categories {
		if !c.Valid() {
			return nil, invalid("unknown category %q", c)
		}
	}
	for _, d := range opts.Departments {
		if !d.Valid() {
			return nil, invalid("unknown department %q", d)
		}
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, invalid("limit and offset must not be negative")
	}

	complaints, err := s.store.List(ctx, repository.ComplaintFilter{
		Statuses:    opts.Statuses,
		Categories:  opts.Categories,
		Departments: opts.Departments,
		Search:      strings.TrimSpace(opts.Search),
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	})
	if err != nil {
		return nil, external(ExternalDatabase, err)
	}
	return complaints, nil
}

func (s *ComplaintService) Get(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	return s.load(ctx, id)
}

func (s *ComplaintService) History(ctx context.Context, id uuid.UUID) ([]model.ComplaintStatusLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.store.History(ctx, id)
	if err != nil {
		return nil, external(ExternalDatabase, err)
	}
	return entries, nil
}

// All returns every complaint, newest first.
func (s *ComplaintService) All(ctx context.Context) ([]model.Complaint, error) {
	complaints, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, external(ExternalDatabase, err)
	}
	return complaints, nil
}

func (s *ComplaintService) Dashboard(ctx context.Context) (dashboard.Stats, error) {
	complaints, err := s.All(ctx)
	if err != nil {
		return dashboard.Stats{}, err
	}
	return dashboard.Compute(complaints), nil
}

func (s *ComplaintService) PublicBoard(ctx context.Context) (*PublicBoard, error) {
	complaints, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	board := &PublicBoard{
		Active:   []model.Complaint{},
		InReview: []model.Complaint{},
		Resolved: []model.Complaint{},
		Denied:   []model.Complaint{},
	}
	for _, c := range complaints {
		switch c.Status {
		case model.StatusNew, model.StatusInProgress:
			board.Active = append(board.Active, c)
		case model.StatusInReview:
			board.InReview = append(board.InReview, c)
		case model.StatusResolved:
			board.Resolved = append(board.Resolved, c)
		case model.StatusDenied:
			board.Denied = append(board.Denied, c)
		}
	}
	board.Counts = PublicCounts{
		Total:    len(complaints),
		Active:   len(board.Active),
		InReview: len(board.InReview),
		Resolved: len(board.Resolved),
		Denied:   len(board.Denied),
	}
	return board, nil
}

func (s *ComplaintService) load(ctx context.Context, id uuid.UUID) (*model.Complaint, error) {
	complaint, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	return complaint, nil
}

func statusError(status model.ComplaintStatus) error {
	if status.IsTerminal() {
		return fmt.Errorf("%w: complaint is already %s", ErrInvalidStatus, status)
	}
	return fmt.Errorf("%w: complaint is %s", ErrInvalidStatus, status)
}

func (s *ComplaintService) storeError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return external(ExternalDatabase, err)
}

// discardBlob removes an upload whose record was never written. The request
// context may already be canceled here.
func (s *ComplaintService) discardBlob(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.Remove(ctx, url); err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("failed to remove orphaned upload")
	}
}

func checkLocation(raw string) (string, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return "", invalid("location_description is required")
	}
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return "", invalid("location_description must be at most %d characters", MaxLocationLength)
	}
	return location, nil
}

func validCoordinate(value, limit float64) bool {
	return !math.IsNaN(value) && value >= -limit && value <= limit
}
