// Package consensus selects one winning topic from weighted, independent
// voter scores collected through the generation oracle.
//
// Conventions:
// - Aggregation is a pure function of the votes; call order never
//   changes the result.
// - Out-of-range scores are input errors, never clamped.
package consensus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/linotype/internal/adapters/oracle"
	"github.com/okian/linotype/internal/domain/model"
	"github.com/okian/linotype/pkg/logger"
	"github.com/okian/linotype/pkg/metrics"
)

// Default selector configuration constants.
const (
	defaultQuorumFraction = 1.0
	defaultConcurrency    = 8
	minScore              = 0
	maxScore              = 10

	// scoreEpsilon bounds float comparison when detecting score ties.
	scoreEpsilon = 1e-9
)

// Selector fans voter calls out through the oracle and aggregates the
// replies into a single ConsensusResult.
type Selector struct {
	oracle      oracle.Oracle
	policy      oracle.Policy
	quorum      float64
	concurrency int
	logger      logger.Logger
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRetryPolicy sets the retry policy for voter calls.
func WithRetryPolicy(p oracle.Policy) Option {
	return func(s *Selector) {
		s.policy = p
	}
}

// WithQuorumFraction sets the minimum fraction of voters that must
// return a valid vote for every topic. Values outside (0, 1] are ignored.
func WithQuorumFraction(q float64) Option {
	return func(s *Selector) {
		if q > 0 && q <= 1 {
			s.quorum = q
		}
	}
}

// WithConcurrency bounds the number of in-flight voter calls.
func WithConcurrency(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the selector.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector creates a selector with configuration options.
func NewSelector(o oracle.Oracle, opts ...Option) *Selector {
	s := &Selector{
		oracle:      o,
		policy:      oracle.DefaultPolicy(),
		quorum:      defaultQuorumFraction,
		concurrency: defaultConcurrency,
		logger:      logger.Named("consensus"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select collects one vote per (voter, topic) pair and aggregates them.
// Input validation happens before any oracle call is made.
func (s *Selector) Select(ctx context.Context, topics []model.Topic, voters []model.VoterSpec) (model.ConsensusResult, error) {
	if len(topics) == 0 {
		return model.ConsensusResult{}, ErrEmptyTopicSet
	}
	if len(voters) == 0 {
		return model.ConsensusResult{}, ErrNoVoters
	}

	// The voter calls are independent; this fan-out is the only
	// concurrency point in the pipeline. Failed voters count against
	// quorum instead of aborting the group.
	var mu sync.Mutex
	votes := make([]model.Vote, 0, len(topics)*len(voters))
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, voter := range voters {
		for _, topic := range topics {
			voter, topic := voter, topic
			g.Go(func() error {
				score, err := s.collectVote(gctx, voter, topic)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					metrics.RecordVoteInvalid()
					s.logger.Warn(gctx, "vote discarded",
						logger.String("voter", voter.ID),
						logger.String("topic", topic.ID),
						logger.Error(err),
					)
					if firstErr == nil {
						firstErr = err
					}
					return nil
				}
				metrics.RecordVoteCollected()
				votes = append(votes, model.Vote{VoterID: voter.ID, TopicID: topic.ID, Score: score})
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return model.ConsensusResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.ConsensusResult{}, err
	}

	if err := checkQuorum(topics, voters, votes, s.quorum); err != nil {
		if firstErr != nil {
			return model.ConsensusResult{}, fmt.Errorf("%w (first voter failure: %v)", err, firstErr)
		}
		return model.ConsensusResult{}, err
	}

	return Aggregate(topics, voters, votes)
}

// collectVote runs one voter call under the retry policy and validates
// the returned score. A reply that is not an integer in [0, 10] is a
// malformed oracle error and retried like any other.
func (s *Selector) collectVote(ctx context.Context, voter model.VoterSpec, topic model.Topic) (int, error) {
	var score int
	_, err := s.policy.Do(ctx, func(ctx context.Context) (oracle.Response, error) {
		resp, err := s.oracle.Generate(ctx, oracle.Request{
			Prompt:      votePrompt(voter, topic),
			Schema:      `{"score": <integer 0-10>}`,
			Temperature: 0,
		})
		if err != nil {
			return oracle.Response{}, err
		}
		n, perr := parseScore(resp.Content)
		if perr != nil {
			return oracle.Response{}, oracle.Malformed(perr)
		}
		score = n
		return resp, nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

func votePrompt(voter model.VoterSpec, topic model.Topic) string {
	var b strings.Builder
	if voter.Persona != "" {
		b.WriteString(voter.Persona)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Score the following article topic from 0 to 10.\n")
	fmt.Fprintf(&b, "Title: %s\n", topic.Title)
	fmt.Fprintf(&b, "Description: %s\n", topic.Description)
	b.WriteString(`Reply with JSON only: {"score": <integer 0-10>}`)
	return b.String()
}

// parseScore decodes the voter reply strictly: JSON object with an
// integer score in range. Floats and missing fields are rejected.
func parseScore(content string) (int, error) {
	var reply struct {
		Score *json.Number `json:"score"`
	}
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&reply); err != nil {
		return 0, fmt.Errorf("decode vote: %w", err)
	}
	if reply.Score == nil {
		return 0, fmt.Errorf("vote has no score field")
	}
	n, err := reply.Score.Int64()
	if err != nil {
		return 0, fmt.Errorf("score is not an integer: %w", err)
	}
	if n < minScore || n > maxScore {
		return 0, fmt.Errorf("%w: %d", ErrScoreOutOfRange, n)
	}
	return int(n), nil
}

// checkQuorum verifies every topic gathered valid votes from at least
// the configured fraction of voters.
func checkQuorum(topics []model.Topic, voters []model.VoterSpec, votes []model.Vote, quorum float64) error {
	perTopic := make(map[string]int, len(topics))
	for _, v := range votes {
		perTopic[v.TopicID]++
	}
	for _, t := range topics {
		fraction := float64(perTopic[t.ID]) / float64(len(voters))
		if fraction+scoreEpsilon < quorum {
			return fmt.Errorf("%w: topic %q has %d/%d valid votes, need fraction %.2f",
				ErrNoQuorum, t.ID, perTopic[t.ID], len(voters), quorum)
		}
	}
	return nil
}

// Aggregate computes the weighted-mean winner from a fixed set of votes.
// It is a pure function: same input, same result, independent of vote
// order. Tie-break: higher discovery relevance, then input order.
func Aggregate(topics []model.Topic, voters []model.VoterSpec, votes []model.Vote) (model.ConsensusResult, error) {
	if len(topics) == 0 {
		return model.ConsensusResult{}, ErrEmptyTopicSet
	}
	if len(voters) == 0 {
		return model.ConsensusResult{}, ErrNoVoters
	}

	weights := make(map[string]float64, len(voters))
	for _, v := range voters {
		w := v.Weight
		if w == 0 {
			w = 1
		}
		if w < 0 {
			return model.ConsensusResult{}, fmt.Errorf("voter %q has negative weight %.2f", v.ID, w)
		}
		weights[v.ID] = w
	}
	topicIndex := make(map[string]int, len(topics))
	for i, t := range topics {
		topicIndex[t.ID] = i
	}

	perVoter := make(map[string]map[string]int)
	sums := make([]float64, len(topics))
	weightTotals := make([]float64, len(topics))
	seen := make(map[string]struct{}, len(votes))

	for _, v := range votes {
		if v.Score < minScore || v.Score > maxScore {
			return model.ConsensusResult{}, fmt.Errorf("%w: voter %q scored %d", ErrScoreOutOfRange, v.VoterID, v.Score)
		}
		idx, ok := topicIndex[v.TopicID]
		if !ok {
			return model.ConsensusResult{}, fmt.Errorf("%w: %q", ErrUnknownTopic, v.TopicID)
		}
		w, ok := weights[v.VoterID]
		if !ok {
			return model.ConsensusResult{}, fmt.Errorf("vote from unknown voter %q", v.VoterID)
		}
		key := v.VoterID + "\x00" + v.TopicID
		if _, dup := seen[key]; dup {
			return model.ConsensusResult{}, fmt.Errorf("%w: %s/%s", ErrDuplicateVote, v.VoterID, v.TopicID)
		}
		seen[key] = struct{}{}

		sums[idx] += w * float64(v.Score)
		weightTotals[idx] += w
		if perVoter[v.VoterID] == nil {
			perVoter[v.VoterID] = make(map[string]int)
		}
		perVoter[v.VoterID][v.TopicID] = v.Score
	}

	best := -1
	bestScore := 0.0
	for i, t := range topics {
		if weightTotals[i] == 0 {
			continue
		}
		score := sums[i] / weightTotals[i]
		switch {
		case best == -1, score > bestScore+scoreEpsilon:
			best, bestScore = i, score
		case score > bestScore-scoreEpsilon:
			// Equal weighted score: prefer higher discovery relevance,
			// then keep the earlier topic (stable input order).
			if t.RelevanceScore > topics[best].RelevanceScore {
				best, bestScore = i, score
			}
		}
	}
	if best == -1 {
		return model.ConsensusResult{}, fmt.Errorf("%w: no topic received any valid vote", ErrNoQuorum)
	}

	return model.ConsensusResult{
		WinningTopic:   topics[best],
		WeightedScore:  bestScore,
		PerVoterScores: perVoter,
	}, nil
}
