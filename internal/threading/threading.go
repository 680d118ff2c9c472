// Package threading rebuilds comment threads from flat rows.
package threading

import (
	"github.com/suspect-registry-api/internal/models"
)

// OrphanPolicy decides where a comment goes when its parent is not in the
// input set.
type OrphanPolicy int

const (
	// PromoteOrphans places orphans at the top level, in input order
	PromoteOrphans OrphanPolicy = iota
	// DropOrphans leaves orphans out of the forest
	DropOrphans
)

type tally struct {
	likes    int
	dislikes int
	viewer   *models.VoteKind
}

// Assemble builds a comment forest. Comments must be ordered by creation
// time ascending; that order is kept for the top level and every reply list.
// A parent may appear anywhere in the input. A comment whose parent is
// missing, or whose link would close a cycle, is treated as an orphan.
func Assemble(comments []*models.Comment, votes []*models.CommentVote, viewer string) []*models.CommentNode {
	return AssembleWithPolicy(comments, votes, viewer, PromoteOrphans)
}

// AssembleWithPolicy is Assemble with an explicit orphan policy
func AssembleWithPolicy(comments []*models.Comment, votes []*models.CommentVote, viewer string, orphans OrphanPolicy) []*models.CommentNode {
	tallies := tallyVotes(votes, viewer)

	// Pass 1: index every node
	nodes := make([]*models.CommentNode, len(comments))
	index := make(map[string]int, len(comments))
	for i, c := range comments {
		t := tallies[c.ID]
		node := &models.CommentNode{
			ID:        c.ID,
			ProfileID: c.ProfileID,
			Author: models.CommentAuthor{
				ID:     c.AuthorSteamID64,
				Name:   c.AuthorName,
				Avatar: c.AuthorAvatarURL,
			},
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Replies:   []*models.CommentNode{},
		}
		if t != nil {
			node.Likes = t.likes
			node.Dislikes = t.dislikes
			node.ViewerVote = t.viewer
		}
		nodes[i] = node
		if _, dup := index[c.ID]; !dup {
			index[c.ID] = i
		}
	}

	// Pass 2: link children to parents, in input order
	const undecided, root = -2, -1
	linked := make([]int, len(comments))
	for i := range linked {
		linked[i] = undecided
	}
	parentOf := func(i int) int {
		if linked[i] != undecided {
			return linked[i]
		}
		return rawParent(comments[i], index)
	}

	roots := make([]*models.CommentNode, 0, len(comments))
	for i, c := range comments {
		node := nodes[i]
		if c.ParentID == nil || *c.ParentID == "" {
			linked[i] = root
			roots = append(roots, node)
			continue
		}

		if pos, ok := index[*c.ParentID]; ok && !reaches(pos, i, parentOf) {
			linked[i] = pos
			nodes[pos].Replies = append(nodes[pos].Replies, node)
			continue
		}

		linked[i] = root
		if orphans == PromoteOrphans {
			roots = append(roots, node)
		}
	}

	return roots
}

func rawParent(c *models.Comment, index map[string]int) int {
	if c.ParentID == nil || *c.ParentID == "" {
		return -1
	}
	if pos, ok := index[*c.ParentID]; ok {
		return pos
	}
	return -1
}

// reaches reports whether walking up from start arrives at target
func reaches(start, target int, parentOf func(int) int) bool {
	seen := make(map[int]bool)
	for pos := start; pos >= 0 && !seen[pos]; pos = parentOf(pos) {
		if pos == target {
			return true
		}
		seen[pos] = true
	}
	return false
}

func tallyVotes(votes []*models.CommentVote, viewer string) map[string]*tally {
	tallies := make(map[string]*tally)
	for _, v := range votes {
		t, ok := tallies[v.CommentID]
		if !ok {
			t = &tally{}
			tallies[v.CommentID] = t
		}
		switch v.Kind {
		case models.VoteLike:
			t.likes++
		case models.VoteDislike:
			t.dislikes++
		default:
			continue
		}
		if viewer != "" && v.VoterSteamID64 == viewer {
			kind := v.Kind
			t.viewer = &kind
		}
	}
	return tallies
}

// Count returns the number of nodes in a forest
func Count(forest []*models.CommentNode) int {
	n := 0
	for _, node := range forest {
		n += 1 + Count(node.Replies)
	}
	return n
}
