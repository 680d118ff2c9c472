package threading

import (
	"fmt"
	"testing"
	"time"

	"github.com/suspect-registry-api/internal/models"
)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func comment(id string, parent string, minute int) *models.Comment {
	c := &models.Comment{
		ID:              id,
		ProfileID:       "profile-1",
		AuthorSteamID64: "76561198000000001",
		AuthorName:      "author",
		Content:         "content " + id,
		CreatedAt:       base.Add(time.Duration(minute) * time.Minute),
	}
	if parent != "" {
		c.ParentID = &parent
	}
	return c
}

func vote(commentID, voter string, kind models.VoteKind) *models.CommentVote {
	return &models.CommentVote{CommentID: commentID, VoterSteamID64: voter, Kind: kind}
}

func ids(nodes []*models.CommentNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestAssemble_Tree(t *testing.T) {
	comments := []*models.Comment{
		comment("a", "", 0),
		comment("b", "", 1),
		comment("a1", "a", 2),
		comment("a2", "a", 3),
		comment("a1x", "a1", 4),
		comment("b1", "b", 5),
	}

	forest := Assemble(comments, nil, "")

	if got := fmt.Sprint(ids(forest)); got != "[a b]" {
		t.Fatalf("Expected top level [a b], got %s", got)
	}
	if got := fmt.Sprint(ids(forest[0].Replies)); got != "[a1 a2]" {
		t.Errorf("Expected replies of a [a1 a2], got %s", got)
	}
	if got := fmt.Sprint(ids(forest[0].Replies[0].Replies)); got != "[a1x]" {
		t.Errorf("Expected replies of a1 [a1x], got %s", got)
	}
	if got := fmt.Sprint(ids(forest[1].Replies)); got != "[b1]" {
		t.Errorf("Expected replies of b [b1], got %s", got)
	}
	if Count(forest) != len(comments) {
		t.Errorf("Expected %d nodes, got %d", len(comments), Count(forest))
	}
	if forest[1].Replies[0].Replies == nil {
		t.Error("Leaf replies should be an empty list, not nil")
	}
}

func TestAssemble_Orphans(t *testing.T) {
	comments := []*models.Comment{
		comment("a", "", 0),
		comment("orphan", "missing", 1),
		comment("self", "self", 2),
		comment("a1", "a", 3),
	}

	forest := Assemble(comments, nil, "")

	if got := fmt.Sprint(ids(forest)); got != "[a orphan self]" {
		t.Errorf("Expected orphans promoted in input order, got %s", got)
	}
	if Count(forest) != len(comments) {
		t.Errorf("Expected %d nodes, got %d", len(comments), Count(forest))
	}

	dropped := AssembleWithPolicy(comments, nil, "", DropOrphans)
	if got := fmt.Sprint(ids(dropped)); got != "[a]" {
		t.Errorf("Expected orphans dropped, got %s", got)
	}
}

func TestAssemble_CycleIsBroken(t *testing.T) {
	// b and a claim each other. Neither may disappear and no cycle may form;
	// the first one in the input becomes the root.
	comments := []*models.Comment{
		comment("b", "a", 0),
		comment("a", "b", 1),
	}

	forest := Assemble(comments, nil, "")

	if got := fmt.Sprint(ids(forest)); got != "[b]" {
		t.Fatalf("Expected [b] at top level, got %s", got)
	}
	if got := fmt.Sprint(ids(forest[0].Replies)); got != "[a]" {
		t.Errorf("Expected a under b, got %s", got)
	}
	if Count(forest) != 2 {
		t.Errorf("Expected 2 nodes, got %d", Count(forest))
	}
}

func TestAssemble_ReplyBeforeParentOnEqualTimestamp(t *testing.T) {
	// rows are ordered by created_at then id, so a reply sharing its
	// parent's timestamp can sort first
	comments := []*models.Comment{
		comment("aaaa", "bbbb", 0),
		comment("bbbb", "", 0),
		comment("cccc", "aaaa", 0),
	}

	forest := Assemble(comments, nil, "")

	if got := fmt.Sprint(ids(forest)); got != "[bbbb]" {
		t.Fatalf("Expected [bbbb] at top level, got %s", got)
	}
	if got := fmt.Sprint(ids(forest[0].Replies)); got != "[aaaa]" {
		t.Fatalf("Expected aaaa under bbbb, got %s", got)
	}
	if got := fmt.Sprint(ids(forest[0].Replies[0].Replies)); got != "[cccc]" {
		t.Errorf("Expected cccc under aaaa, got %s", got)
	}
	if Count(forest) != len(comments) {
		t.Errorf("Expected %d nodes, got %d", len(comments), Count(forest))
	}
}

func TestAssemble_ReplyOrderFollowsInput(t *testing.T) {
	comments := []*models.Comment{
		comment("r1", "p", 0),
		comment("p", "", 0),
		comment("r2", "p", 1),
	}

	forest := Assemble(comments, nil, "")

	if len(forest) != 1 {
		t.Fatalf("Expected 1 top-level node, got %d", len(forest))
	}
	if got := fmt.Sprint(ids(forest[0].Replies)); got != "[r1 r2]" {
		t.Errorf("Expected replies [r1 r2], got %s", got)
	}
}

func TestAssemble_LongCycle(t *testing.T) {
	comments := []*models.Comment{
		comment("a", "c", 0),
		comment("b", "a", 1),
		comment("c", "b", 2),
		comment("d", "b", 3),
	}

	forest := Assemble(comments, nil, "")

	if got := fmt.Sprint(ids(forest)); got != "[a]" {
		t.Fatalf("Expected [a] at top level, got %s", got)
	}
	if Count(forest) != len(comments) {
		t.Errorf("Expected %d nodes, got %d", len(comments), Count(forest))
	}
}

func TestAssemble_Votes(t *testing.T) {
	comments := []*models.Comment{
		comment("a", "", 0),
		comment("b", "a", 1),
	}
	votes := []*models.CommentVote{
		vote("a", "viewer", models.VoteLike),
		vote("a", "u2", models.VoteLike),
		vote("a", "u3", models.VoteDislike),
		vote("b", "u2", models.VoteDislike),
		vote("b", "viewer", models.VoteDislike),
		vote("unknown", "viewer", models.VoteLike),
	}

	forest := Assemble(comments, votes, "viewer")

	a := forest[0]
	if a.Likes != 2 || a.Dislikes != 1 {
		t.Errorf("Expected a 2/1, got %d/%d", a.Likes, a.Dislikes)
	}
	if a.ViewerVote == nil || *a.ViewerVote != models.VoteLike {
		t.Errorf("Expected viewer vote like on a, got %v", a.ViewerVote)
	}

	b := a.Replies[0]
	if b.Likes != 0 || b.Dislikes != 2 {
		t.Errorf("Expected b 0/2, got %d/%d", b.Likes, b.Dislikes)
	}
	if b.ViewerVote == nil || *b.ViewerVote != models.VoteDislike {
		t.Errorf("Expected viewer vote dislike on b, got %v", b.ViewerVote)
	}

	anonymous := Assemble(comments, votes, "")
	if anonymous[0].ViewerVote != nil {
		t.Error("Anonymous viewer should have no vote")
	}
}

func TestAssemble_Empty(t *testing.T) {
	forest := Assemble(nil, nil, "")
	if forest == nil || len(forest) != 0 {
		t.Errorf("Expected empty non-nil forest, got %v", forest)
	}
}

func BenchmarkAssemble(b *testing.B) {
	comments := make([]*models.Comment, 0, 1000)
	votes := make([]*models.CommentVote, 0, 5000)
	for i := 0; i < 1000; i++ {
		parent := ""
		if i%3 != 0 {
			parent = fmt.Sprintf("c%d", i-1)
		}
		comments = append(comments, comment(fmt.Sprintf("c%d", i), parent, i))
		for j := 0; j < 5; j++ {
			kind := models.VoteLike
			if j%2 == 1 {
				kind = models.VoteDislike
			}
			votes = append(votes, vote(fmt.Sprintf("c%d", i), fmt.Sprintf("u%d", j), kind))
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		Assemble(comments, votes, "u1")
	}
}
