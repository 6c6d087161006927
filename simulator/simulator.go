package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"sentinel/internal/middleware"
)

type SimConfig struct {
	NumUsers         int
	NumSeedPosts     int
	SimulationTime   time.Duration
	PostFrequency    float64 // Posts per user per minute
	CommentFrequency float64 // Comments per user per minute
	LikeFrequency    float64 // Like toggles per user per minute
	ReloadInterval   time.Duration
	ServerURL        string
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	TotalPosts       int
	TotalComments    int
	TotalReplies     int
	TotalLikeToggles int
	RequestLatencies []time.Duration
}

func (st *SimulationStats) record(latency time.Duration, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.TotalRequests++
	if ok {
		st.SuccessRequests++
	} else {
		st.FailedRequests++
	}
	st.RequestLatencies = append(st.RequestLatencies, latency)
}

// SimulatedUser is one synthetic account driving traffic. Tokens are minted
// locally with the shared secret instead of round-tripping the identity
// service.
type SimulatedUser struct {
	ID         string
	Name       string
	Email      string
	Token      string
	Posts      []string
	LikedPosts map[string]bool
}

// simComment is what the reply flow needs to target a comment: its id and
// the author to @mention.
type simComment struct {
	ID         string
	AuthorName string
}

type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser

	// All known posts and comments, shared across activity goroutines.
	mu       sync.RWMutex
	postIDs  []string
	comments map[string][]simComment // postID -> comments

	client *http.Client
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		comments: make(map[string][]simComment),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting Sentinel simulation...")

	if err := s.initialize(); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.SimulationTime)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SimulateActivities(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.reportMetrics(ctx)
	}()

	wg.Wait()
	s.printSummary()
	return nil
}

func (s *Simulator) initialize() error {
	log.Printf("Phase 1: Creating %d simulated users...", s.config.NumUsers)
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)
	for i := 0; i < s.config.NumUsers; i++ {
		userID := fmt.Sprintf("sim-user-%d", i)
		token, err := middleware.GenerateToken(userID, fmt.Sprintf("user_%d@test.com", i), fmt.Sprintf("user_%d", i))
		if err != nil {
			return fmt.Errorf("failed to mint token for %s: %v", userID, err)
		}
		s.users = append(s.users, &SimulatedUser{
			ID:         userID,
			Name:       fmt.Sprintf("Sim User %d", i),
			Email:      fmt.Sprintf("user_%d@test.com", i),
			Token:      token,
			LikedPosts: make(map[string]bool),
		})
	}

	log.Printf("Phase 2: Seeding %d posts...", s.config.NumSeedPosts)
	for i := 0; i < s.config.NumSeedPosts; i++ {
		user := s.users[rand.Intn(len(s.users))]
		if err := s.createPost(user); err != nil {
			log.Printf("Seed post failed: %v", err)
		}
	}

	// Load the feed once so comments land on a known tree.
	return s.reloadFeed(s.users[0])
}

// sendRequest posts JSON and decodes the response into out when non-nil.
func (s *Simulator) sendRequest(user *SimulatedUser, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.config.ServerURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+user.Token)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.stats.record(latency, false)
		return err
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.stats.record(latency, ok)
	if !ok {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (s *Simulator) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			log.Printf("Stats: %d requests (%d ok, %d failed), %d posts, %d comments, %d replies, %d like toggles",
				s.stats.TotalRequests, s.stats.SuccessRequests, s.stats.FailedRequests,
				s.stats.TotalPosts, s.stats.TotalComments, s.stats.TotalReplies, s.stats.TotalLikeToggles)
			s.stats.mu.RUnlock()
		}
	}
}

func (s *Simulator) printSummary() {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	var total time.Duration
	for _, l := range s.stats.RequestLatencies {
		total += l
	}
	var avg time.Duration
	if len(s.stats.RequestLatencies) > 0 {
		avg = total / time.Duration(len(s.stats.RequestLatencies))
	}

	log.Printf("Simulation finished after %v", time.Since(s.stats.StartTime))
	log.Printf("Requests: %d total, %d ok, %d failed, avg latency %v",
		s.stats.TotalRequests, s.stats.SuccessRequests, s.stats.FailedRequests, avg)
	log.Printf("Content: %d posts, %d comments, %d replies, %d like toggles",
		s.stats.TotalPosts, s.stats.TotalComments, s.stats.TotalReplies, s.stats.TotalLikeToggles)
}
