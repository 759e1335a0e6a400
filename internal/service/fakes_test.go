package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/ai"
	"complaint-service/internal/media"
	"complaint-service/internal/model"
	"complaint-service/internal/realtime"
	"complaint-service/internal/repository"
)

var pngPhoto = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func photoReader() *bytes.Reader {
	return bytesReader(pngPhoto)
}

func bytesReader(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

type fakeStore struct {
	mu         sync.Mutex
	complaints map[uuid.UUID]model.Complaint
	logs       []model.ComplaintStatusLog
	nextNumber int64

	createErr        error
	transitionErr    error
	beforeTransition func(c *model.Complaint)
	calls            int
}

func newFakeStore() *fakeStore {
	return &fakeStore{complaints: make(map[uuid.UUID]model.Complaint)}
}

func (f *fakeStore) put(c model.Complaint) model.Complaint {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.complaints[c.ID] = c
	return c
}

func (f *fakeStore) Create(_ context.Context, complaint *model.Complaint, entry *model.ComplaintStatusLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	complaint.ID = uuid.New()
	f.nextNumber++
	complaint.Number = f.nextNumber
	f.complaints[complaint.ID] = *complaint
	if entry != nil {
		entry.ComplaintID = complaint.ID
		f.logs = append(f.logs, *entry)
	}
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	c, ok := f.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeStore) List(ctx context.Context, filter repository.ComplaintFilter) ([]model.Complaint, error) {
	all, _ := f.ListAll(ctx)
	var out []model.Complaint
	for _, c := range all {
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, c.Status) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Issue), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]model.Complaint, 0, len(f.complaints))
	for _, c := range f.complaints {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, id uuid.UUID, t repository.Transition) (*model.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	c, ok := f.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if f.beforeTransition != nil {
		f.beforeTransition(&c)
	}
	from := c.Status
	c.Status = t.To
	if t.To == model.StatusResolved {
		c.ResolutionImageURL = t.ResolutionImageURL
		c.ResolvedAt = t.ResolvedAt
	}
	f.complaints[id] = c
	f.logs = append(f.logs, model.ComplaintStatusLog{
		ComplaintID: id,
		OldStatus:   &from,
		NewStatus:   t.To,
		Note:        t.Note,
		ChangedBy:   t.ChangedBy,
	})
	return &c, nil
}

func (f *fakeStore) History(_ context.Context, id uuid.UUID) ([]model.ComplaintStatusLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ComplaintStatusLog
	for _, entry := range f.logs {
		if entry.ComplaintID == id {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeBlobs struct {
	objects   map[string][]byte
	uploadErr error
	fetchErr  error
	uploads   []string
	removed   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, prefix, ext string, data []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := "http://media.test/" + prefix + uuid.NewString() + "." + ext
	f.objects[url] = data
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeBlobs) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.objects[url]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeBlobs) Remove(_ context.Context, url string) error {
	delete(f.objects, url)
	f.removed = append(f.removed, url)
	return nil
}

type fakeDrafter struct {
	draft *ai.Draft
	err   error
	calls int
}

func (f *fakeDrafter) DraftComplaint(context.Context, media.Image, string) (*ai.Draft, error) {
	f.calls++
	return f.draft, f.err
}

type fakeVerifier struct {
	verdict *ai.Verdict
	err     error
	calls   int
	issue   string
}

func (f *fakeVerifier) VerifyResolution(_ context.Context, _, _ media.Image, issue string) (*ai.Verdict, error) {
	f.calls++
	f.issue = issue
	return f.verdict, f.err
}

type recordingPublisher struct {
	events []realtime.Event
}

func (r *recordingPublisher) Publish(ev realtime.Event) {
	r.events = append(r.events, ev)
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
