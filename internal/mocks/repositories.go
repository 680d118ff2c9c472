package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suspect-registry-api/internal/apperrors"
	"github.com/suspect-registry-api/internal/models"
	"github.com/suspect-registry-api/internal/repository"
)

// Mocks is an in-memory store implementing every repository. Repositories
// share one lock because SubmitReport spans several of them.
type Mocks struct {
	mu sync.RWMutex

	Profile    *MockProfileRepository
	Accusation *MockAccusationRepository
	Evidence   *MockEvidenceRepository
	Comment    *MockCommentRepository
	Vote       *MockVoteRepository
	User       *MockUserRepository
	Submission *MockSubmissionRepository
}

// NewMocks creates an empty in-memory store
func NewMocks() *Mocks {
	m := &Mocks{}
	m.Profile = &MockProfileRepository{m: m, Profiles: make(map[string]*models.Profile)}
	m.Accusation = &MockAccusationRepository{m: m}
	m.Evidence = &MockEvidenceRepository{m: m}
	m.Comment = &MockCommentRepository{m: m}
	m.Vote = &MockVoteRepository{m: m}
	m.User = &MockUserRepository{m: m, Users: make(map[string]*models.User)}
	m.Submission = &MockSubmissionRepository{m: m}
	return m
}

// Repositories returns the mocks behind the repository interfaces
func (m *Mocks) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Profile:    m.Profile,
		Accusation: m.Accusation,
		Evidence:   m.Evidence,
		Comment:    m.Comment,
		Vote:       m.Vote,
		User:       m.User,
		Submission: m.Submission,
	}
}

func window[T any](rows []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if page.Size > 0 && start+page.Size < end {
		end = start + page.Size
	}
	return rows[start:end]
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	m *Mocks

	Profiles map[string]*models.Profile
	ListErr  error
}

var _ repository.ProfileRepository = (*MockProfileRepository)(nil)

// Add stores p as is, assigning an id if it has none
func (r *MockProfileRepository) Add(p *models.Profile) *models.Profile {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
		p.UpdatedAt = p.CreatedAt
	}
	cp := *p
	r.Profiles[p.ID] = &cp
	return p
}

func (r *MockProfileRepository) upsert(p *models.Profile) bool {
	for _, existing := range r.Profiles {
		if existing.SteamID64 == p.SteamID64 {
			*p = *existing
			return false
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.Profiles[p.ID] = &cp
	return true
}

func (r *MockProfileRepository) Upsert(ctx context.Context, p *models.Profile) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.upsert(p), nil
}

func (r *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if p, ok := r.Profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *MockProfileRepository) GetBySteamID64(ctx context.Context, steamID64 string) (*models.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, p := range r.Profiles {
		if p.SteamID64 == steamID64 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MockProfileRepository) sorted() []*models.Profile {
	out := make([]*models.Profile, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MockProfileRepository) List(ctx context.Context, page models.Page) ([]*models.Profile, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return window(r.sorted(), page), nil
}

func (r *MockProfileRepository) SetConfirmed(ctx context.Context, id string, confirmed bool) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.Profiles[id]
	if !ok {
		return nil, nil
	}
	p.Confirmed = confirmed
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (r *MockProfileRepository) Count(ctx context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.Profiles), nil
}

func (r *MockProfileRepository) StreamAll(ctx context.Context, callback func(*models.Profile) error) error {
	r.m.mu.RLock()
	rows := r.sorted()
	r.m.mu.RUnlock()
	for _, p := range rows {
		if err := callback(p); err != nil {
			return err
		}
	}
	return nil
}

// MockAccusationRepository is a mock implementation of AccusationRepository
type MockAccusationRepository struct {
	m *Mocks

	Accusations []*models.Accusation
	CountErr    error
}

var _ repository.AccusationRepository = (*MockAccusationRepository)(nil)

func (r *MockAccusationRepository) create(a *models.Accusation) {
	a.ID = uuid.NewString()
	if a.ReportedAt.IsZero() {
		a.ReportedAt = time.Now()
	}
	cp := *a
	r.Accusations = append(r.Accusations, &cp)
}

func (r *MockAccusationRepository) Create(ctx context.Context, a *models.Accusation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.Profile.Profiles[a.ProfileID]; !ok {
		return apperrors.ErrNotFound
	}
	r.create(a)
	return nil
}

func (r *MockAccusationRepository) ListByProfile(ctx context.Context, profileID string) ([]*models.Accusation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []*models.Accusation{}
	for _, a := range r.Accusations {
		if a.ProfileID == profileID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockAccusationRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	if r.CountErr != nil {
		return 0, r.CountErr
	}
	rows, _ := r.ListByProfile(ctx, profileID)
	return len(rows), nil
}

func (r *MockAccusationRepository) Feed(ctx context.Context, page models.Page) ([]*models.AccusationFeedItem, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	rows := make([]*models.Accusation, len(r.Accusations))
	copy(rows, r.Accusations)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ReportedAt.After(rows[j].ReportedAt) })

	out := make([]*models.AccusationFeedItem, 0, len(rows))
	for _, a := range window(rows, page) {
		item := &models.AccusationFeedItem{ID: a.ID, ReporterIPHash: a.ReporterIPHash, ReportedAt: a.ReportedAt}
		if p, ok := r.m.Profile.Profiles[a.ProfileID]; ok {
			item.Profile = &models.ReportProfile{ID: p.ID, SteamID64: p.SteamID64, SteamURL: p.SteamURL}
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *MockAccusationRepository) Count(ctx context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.Accusations), nil
}

// MockEvidenceRepository is a mock implementation of EvidenceRepository
type MockEvidenceRepository struct {
	m *Mocks

	Evidence    []*models.Evidence
	InsertError error
}

var _ repository.EvidenceRepository = (*MockEvidenceRepository)(nil)

func (r *MockEvidenceRepository) create(e *models.Evidence) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	cp := *e
	r.Evidence = append(r.Evidence, &cp)
}

func (r *MockEvidenceRepository) Create(ctx context.Context, e *models.Evidence) error {
	if r.InsertError != nil {
		return r.InsertError
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.create(e)
	return nil
}

func (r *MockEvidenceRepository) find(id string) *models.Evidence {
	for _, e := range r.Evidence {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (r *MockEvidenceRepository) GetByID(ctx context.Context, id string) (*models.Evidence, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if e := r.find(id); e != nil {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *MockEvidenceRepository) ListByProfile(ctx context.Context, profileID string) ([]*models.Evidence, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []*models.Evidence{}
	for _, e := range r.Evidence {
		if e.ProfileID == profileID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockEvidenceRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	rows, _ := r.ListByProfile(ctx, profileID)
	return len(rows), nil
}

func (r *MockEvidenceRepository) Vote(ctx context.Context, id string, vote models.EvidenceVote) (*models.Evidence, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e := r.find(id)
	if e == nil {
		return nil, nil
	}
	if vote == models.EvidenceUp {
		e.UpVotes++
	} else {
		e.DownVotes++
	}
	cp := *e
	return &cp, nil
}

func (r *MockEvidenceRepository) Count(ctx context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.Evidence), nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	m *Mocks

	Comments []*models.Comment
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

// Add stores c as is, keeping its id and timestamp when set
func (r *MockCommentRepository) Add(c *models.Comment) *models.Comment {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	r.Comments = append(r.Comments, &cp)
	return c
}

func (r *MockCommentRepository) Create(ctx context.Context, c *models.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.Profile.Profiles[c.ProfileID]; !ok {
		return apperrors.ErrNotFound
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	cp := *c
	r.Comments = append(r.Comments, &cp)
	return nil
}

// withAuthor copies c and embeds author data; caller holds the lock
func (r *MockCommentRepository) withAuthor(c *models.Comment) *models.Comment {
	cp := *c
	if u, ok := r.m.User.Users[c.AuthorSteamID64]; ok {
		cp.AuthorName = u.Name
		cp.AuthorAvatarURL = u.AvatarURL
	}
	return &cp
}

func (r *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, c := range r.Comments {
		if c.ID == id {
			return r.withAuthor(c), nil
		}
	}
	return nil, nil
}

func (r *MockCommentRepository) ListByProfile(ctx context.Context, profileID string) ([]*models.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []*models.Comment{}
	for _, c := range r.Comments {
		if c.ProfileID == profileID {
			out = append(out, r.withAuthor(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MockCommentRepository) CountByProfile(ctx context.Context, profileID string) (int, error) {
	rows, _ := r.ListByProfile(ctx, profileID)
	return len(rows), nil
}

// Delete removes the comment and detaches its replies, like ON DELETE SET NULL
func (r *MockCommentRepository) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, c := range r.Comments {
		if c.ID != id {
			continue
		}
		r.Comments = append(r.Comments[:i], r.Comments[i+1:]...)
		for _, reply := range r.Comments {
			if reply.ParentID != nil && *reply.ParentID == id {
				reply.ParentID = nil
			}
		}
		return nil
	}
	return apperrors.ErrNotFound
}

func (r *MockCommentRepository) Count(ctx context.Context) (int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return len(r.Comments), nil
}

// MockVoteRepository is a mock implementation of VoteRepository
type MockVoteRepository struct {
	m *Mocks

	Votes []*models.CommentVote
}

var _ repository.VoteRepository = (*MockVoteRepository)(nil)

func (r *MockVoteRepository) Get(ctx context.Context, commentID, voterSteamID64 string) (*models.CommentVote, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, v := range r.Votes {
		if v.CommentID == commentID && v.VoterSteamID64 == voterSteamID64 {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MockVoteRepository) Save(ctx context.Context, v *models.CommentVote) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.Votes {
		if existing.CommentID == v.CommentID && existing.VoterSteamID64 == v.VoterSteamID64 {
			existing.Kind = v.Kind
			return nil
		}
	}
	cp := *v
	r.Votes = append(r.Votes, &cp)
	return nil
}

func (r *MockVoteRepository) Delete(ctx context.Context, commentID, voterSteamID64 string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, v := range r.Votes {
		if v.CommentID == commentID && v.VoterSteamID64 == voterSteamID64 {
			r.Votes = append(r.Votes[:i], r.Votes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MockVoteRepository) ListByComments(ctx context.Context, commentIDs []string) ([]*models.CommentVote, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	wanted := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}
	out := []*models.CommentVote{}
	for _, v := range r.Votes {
		if wanted[v.CommentID] {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	m *Mocks

	Users       map[string]*models.User
	UpsertCalls int
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (r *MockUserRepository) Upsert(ctx context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.UpsertCalls++
	cp := *u
	cp.UpdatedAt = time.Now()
	r.Users[u.SteamID64] = &cp
	return nil
}

func (r *MockUserRepository) GetByID(ctx context.Context, steamID64 string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if u, ok := r.Users[steamID64]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// MockSubmissionRepository writes a submission atomically under the store
// lock. Err makes every submission fail without writing anything.
type MockSubmissionRepository struct {
	m *Mocks

	Err   error
	Calls int
}

var _ repository.SubmissionRepository = (*MockSubmissionRepository)(nil)

func (r *MockSubmissionRepository) SubmitReport(ctx context.Context, sub *models.ReportSubmission) (*models.SubmissionResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}

	created := r.m.Profile.upsert(sub.Profile)
	result := &models.SubmissionResult{ProfileID: sub.Profile.ID, ProfileCreated: created}

	sub.Accusation.ProfileID = sub.Profile.ID
	r.m.Accusation.create(sub.Accusation)
	result.AccusationID = sub.Accusation.ID

	if sub.Evidence != nil {
		sub.Evidence.ProfileID = sub.Profile.ID
		r.m.Evidence.create(sub.Evidence)
		result.EvidenceID = sub.Evidence.ID
	}
	return result, nil
}
