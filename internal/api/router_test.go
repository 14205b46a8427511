package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"scoreledger/internal/api/handlers"
	"scoreledger/internal/config"
	"scoreledger/internal/metrics"
	"scoreledger/internal/models"
	"scoreledger/internal/repository"
	"scoreledger/internal/scoring"
	"scoreledger/internal/service"
	"scoreledger/internal/testhelper"
	"scoreledger/internal/validation"
	"scoreledger/internal/websocket"
	"scoreledger/internal/worker"
)

type queuedClicks struct {
	mu    sync.Mutex
	tasks []worker.ClickTask
	err   error
}

func (q *queuedClicks) Submit(task worker.ClickTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

type testServer struct {
	app      *fiber.App
	clicks   *queuedClicks
	referral *service.ReferralService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := testhelper.NewStore(t)
	client, _ := testhelper.NewRedis(t)
	cache := repository.NewLeaderboardCache(client, time.Minute)
	m := metrics.New()
	v := validation.New()
	windows := service.NewWindows(time.UTC, time.Now)
	rewards := config.Rewards{PointsPerCoin: 10, ReferralLimit: 3, ReferrerBonus: 50, RefereeBonus: 25}

	leaderboard := service.NewLeaderboardService(store, cache, windows, m)
	referral := service.NewReferralService(store, rewards, m)
	clicks := &queuedClicks{}

	app := NewApp(Dependencies{
		Matches:     service.NewMatchService(store, cache, v, scoring.DefaultRules(), windows, m),
		Leaderboard: leaderboard,
		Wallet:      service.NewWalletService(store, rewards, m),
		Referrals:   referral,
		Players:     service.NewPlayerService(store),
		Clicks:      clicks,
		Hub:         websocket.NewHub(leaderboard),
		Metrics:     m,
		Validator:   v,
		Paging:      handlers.Paging{DefaultSize: 20, MaxSize: 100},
	})
	return &testServer{app: app, clicks: clicks, referral: referral}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(handlers.HeaderUserID, user)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func matchBody(id, player string) map[string]interface{} {
	return map[string]interface{}{
		"match_id":            id,
		"player_id":           player,
		"game_type":           "solo",
		"game_mode":           "timed",
		"operation":           "addition",
		"grid_size":           4,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
		"status":              "completed",
		"final_score":         100,
		"accuracy_percentage": 100,
		"hints_used":          0,
		"completion_time":     90,
	}
}

func TestIdentityRequired(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/games", "/api/v1/wallet", "/api/v1/leaderboard", "/api/v1/referral/code"} {
		if code, _ := s.do(t, http.MethodGet, path, "", nil); code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, code)
		}
	}

	if code, _ := s.do(t, http.MethodGet, "/api/v1/health", "", nil); code != http.StatusOK {
		t.Errorf("health should be public, got %d", code)
	}
}

func TestAddMatchEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		code, raw := s.do(t, http.MethodPost, "/api/v1/games", "alice", matchBody("m-1", "alice"))
		if code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", code, raw)
		}
		var resp models.AddMatchResponse
		decode(t, raw, &resp)
		if resp.Match == nil || resp.Match.PointsEarned != 170 {
			t.Fatalf("expected 170 points echoed, got %s", raw)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPost, "/api/v1/games", "alice", matchBody("m-1", "alice"))
		if code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", code)
		}
	})

	t.Run("validation", func(t *testing.T) {
		body := matchBody("m-2", "alice")
		delete(body, "completion_time")
		body["grid_size"] = 0

		code, raw := s.do(t, http.MethodPost, "/api/v1/games", "alice", body)
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
		var resp models.ErrorResponse
		decode(t, raw, &resp)
		if _, ok := resp.Fields["grid_size"]; !ok {
			t.Errorf("expected grid_size error, got %v", resp.Fields)
		}
		if _, ok := resp.Fields["completion_time"]; !ok {
			t.Errorf("expected completion_time error, got %v", resp.Fields)
		}
	})

	t.Run("player mismatch", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPost, "/api/v1/games", "bob", matchBody("m-3", "alice"))
		if code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
	})

	t.Run("history", func(t *testing.T) {
		code, raw := s.do(t, http.MethodGet, "/api/v1/games", "alice", nil)
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		var resp models.MatchHistoryResponse
		decode(t, raw, &resp)
		if resp.Total != 1 || resp.PageSize != 20 || resp.Page != 1 {
			t.Fatalf("unexpected history %s", raw)
		}
	})
}

func TestLeaderboardParams(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/players/sync", "", map[string]string{"id": "alice", "username": "alice"})
	if code, raw := s.do(t, http.MethodPost, "/api/v1/games", "alice", matchBody("m-1", "alice")); code != http.StatusCreated {
		t.Fatalf("add match: %d %s", code, raw)
	}

	bad := []string{
		"/api/v1/leaderboard?period=yesterday",
		"/api/v1/leaderboard?page=184467440737095517&page_size=100",
		"/api/v1/games?page=184467440737095517&page_size=100",
		"/api/v1/leaderboard?page=99999999999999999999",
		"/api/v1/leaderboard?page=abc",
		"/api/v1/leaderboard?page=0",
		"/api/v1/leaderboard?page_size=0",
		"/api/v1/leaderboard?page_size=101",
	}
	for _, path := range bad {
		if code, _ := s.do(t, http.MethodGet, path, "alice", nil); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, code)
		}
	}

	// The largest page whose offset still fits is served as an empty page.
	code, raw := s.do(t, http.MethodGet, "/api/v1/leaderboard?page=21474837&page_size=100", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("last addressable page: expected 200, got %d %s", code, raw)
	}
	var far models.LeaderboardResponse
	decode(t, raw, &far)
	if len(far.Data) != 0 || far.Total != 1 {
		t.Fatalf("far page should be empty with total 1, got %s", raw)
	}

	code, raw = s.do(t, http.MethodGet, "/api/v1/leaderboard", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var resp models.LeaderboardResponse
	decode(t, raw, &resp)
	if resp.Period != models.PeriodAllTime || len(resp.Data) != 1 || resp.Data[0].TotalPoints != 170 {
		t.Fatalf("unexpected leaderboard %s", raw)
	}

	code, raw = s.do(t, http.MethodGet, "/api/v1/leaderboard?period=today&page=1&page_size=5", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	decode(t, raw, &resp)
	if resp.Period != models.PeriodToday || resp.WindowStart == nil {
		t.Fatalf("expected today window, got %s", raw)
	}
}

func TestWalletEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, raw := s.do(t, http.MethodPost, "/api/v1/wallet/adjust", "alice", map[string]interface{}{"amount": 30, "direction": "increment"})
	if code != http.StatusOK {
		t.Fatalf("increment: %d %s", code, raw)
	}

	code, raw = s.do(t, http.MethodPost, "/api/v1/wallet/adjust", "alice", map[string]interface{}{"amount": 31, "direction": "decrement"})
	if code != http.StatusBadRequest {
		t.Fatalf("overspend: expected 400, got %d %s", code, raw)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/wallet/adjust", "alice", map[string]interface{}{"amount": -5, "direction": "increment"})
	if code != http.StatusBadRequest {
		t.Fatalf("negative amount: expected 400, got %d", code)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/wallet/adjust", "alice", map[string]interface{}{"amount": 5, "direction": "sideways"})
	if code != http.StatusBadRequest {
		t.Fatalf("bad direction: expected 400, got %d", code)
	}

	s.do(t, http.MethodPost, "/api/v1/games", "alice", matchBody("m-1", "alice"))

	code, raw = s.do(t, http.MethodPost, "/api/v1/wallet/redeem", "alice", map[string]int{"coins": 17})
	if code != http.StatusOK {
		t.Fatalf("redeem: %d %s", code, raw)
	}
	var result models.RedeemResult
	decode(t, raw, &result)
	if result.PointsSpent != 170 || result.AvailablePoints != 0 || result.AvailableCoins != 47 {
		t.Fatalf("unexpected redeem result %s", raw)
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/wallet/redeem", "alice", map[string]int{"coins": 1})
	if code != http.StatusBadRequest {
		t.Fatalf("redeem without points: expected 400, got %d", code)
	}

	code, raw = s.do(t, http.MethodGet, "/api/v1/wallet", "alice", nil)
	var wallet models.WalletResponse
	decode(t, raw, &wallet)
	if code != http.StatusOK || wallet.TotalCoins != 47 || wallet.AvailableCoins != 47 {
		t.Fatalf("unexpected wallet %d %s", code, raw)
	}

	code, raw = s.do(t, http.MethodGet, "/api/v1/points", "alice", nil)
	var points models.PointsResponse
	decode(t, raw, &points)
	if code != http.StatusOK || points.TotalEarned != 170 || points.PointsUsed != 170 {
		t.Fatalf("unexpected points %d %s", code, raw)
	}
}

func TestReferralEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, raw := s.do(t, http.MethodGet, "/api/v1/referral/code", "alice", nil)
	if code != http.StatusOK {
		t.Fatalf("my code: %d %s", code, raw)
	}
	var mine models.ReferralCodeResponse
	decode(t, raw, &mine)
	if len(mine.Code) != 8 || mine.ReferralLimit != 3 {
		t.Fatalf("unexpected code response %s", raw)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/referral", "bob", map[string]string{}); code != http.StatusBadRequest {
		t.Fatalf("missing code: expected 400, got %d", code)
	}

	// Every well-formed submission gets the same answer, credited or not.
	for _, submitted := range []string{"NOPE1234", strings.ToLower(mine.Code), mine.Code} {
		code, raw := s.do(t, http.MethodPost, "/api/v1/referral", "bob", map[string]string{"code": submitted})
		if code != http.StatusOK || !strings.Contains(string(raw), "Referral code submitted.") {
			t.Fatalf("submit %q: %d %s", submitted, code, raw)
		}
	}

	code, raw = s.do(t, http.MethodGet, "/api/v1/wallet", "bob", nil)
	var wallet models.WalletResponse
	decode(t, raw, &wallet)
	if wallet.TotalCoins != 25 {
		t.Fatalf("referee should be credited once, got %s", raw)
	}
}

func TestDownloadEndpoints(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/players/sync", "", map[string]string{"id": "alice", "username": "Alice"})
	_, raw := s.do(t, http.MethodGet, "/api/v1/referral/code", "alice", nil)
	var mine models.ReferralCodeResponse
	decode(t, raw, &mine)

	code, raw := s.do(t, http.MethodGet, "/download?refcode="+strings.ToLower(mine.Code), "", nil)
	var lookup models.ReferralLookupResponse
	decode(t, raw, &lookup)
	if code != http.StatusOK || !lookup.ValidCode || lookup.ReferrerUsername != "Alice" {
		t.Fatalf("unexpected lookup %d %s", code, raw)
	}

	_, raw = s.do(t, http.MethodGet, "/download?refcode=UNKNOWN1", "", nil)
	decode(t, raw, &lookup)
	if lookup.ValidCode {
		t.Fatalf("unknown code reported valid: %s", raw)
	}

	req := httptest.NewRequest(http.MethodPost, "/download/click", strings.NewReader(`{"refcode":"`+mine.Code+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"tracked":true`) {
		t.Fatalf("click: %d %s", resp.StatusCode, body)
	}

	s.clicks.mu.Lock()
	got := s.clicks.tasks
	s.clicks.mu.Unlock()
	if len(got) != 1 || got[0].IP != "203.0.113.9" || got[0].Code != mine.Code {
		t.Fatalf("unexpected queued clicks %+v", got)
	}

	if code, _ := s.do(t, http.MethodPost, "/download/click", "", map[string]string{}); code != http.StatusBadRequest {
		t.Fatalf("missing refcode: expected 400, got %d", code)
	}

	s.clicks.mu.Lock()
	s.clicks.err = worker.ErrQueueFull
	s.clicks.mu.Unlock()
	_, raw = s.do(t, http.MethodPost, "/download/click?refcode="+mine.Code, "", nil)
	if !strings.Contains(string(raw), `"tracked":false`) {
		t.Fatalf("full queue should report untracked: %s", raw)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/games", "alice", matchBody("m-1", "alice"))

	code, raw := s.do(t, http.MethodGet, "/metrics", "", nil)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(string(raw), `scoreledger_matches_recorded_total{status="completed"} 1`) {
		t.Fatalf("match counter missing from exposition")
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, http.MethodGet, "/ws", "", nil); code != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", code)
	}
}
