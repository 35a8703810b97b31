package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"auction-bidding/internal/config"
	"auction-bidding/internal/domain"
	"auction-bidding/internal/infrastructure/memory"
	redisinfra "auction-bidding/internal/infrastructure/redis"
	"auction-bidding/internal/services"
	"auction-bidding/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	echo     *echo.Echo
	auctions *memory.AuctionStore
	bids     *memory.BidAttemptStore
	ledger   *services.LedgerWriter
}

func newTestServer(t *testing.T, auctionStore domain.AuctionStore) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewNop()
	auctions := memory.NewAuctionStore()
	if auctionStore == nil {
		auctionStore = auctions
	}
	bids := memory.NewBidAttemptStore()
	cache := redisinfra.NewRedisBidCache(client, 180*time.Second)
	ledger := services.NewLedgerWriter(1, 64, time.Second, log, bids)
	t.Cleanup(func() { ledger.Close(context.Background()) })

	schedule := services.NewIncrementSchedule([]config.IncrementTier{{Below: 0, Step: 5}})
	auctionService := services.NewAuctionService(auctionStore, bids, schedule, log)
	currentBidService := services.NewCurrentBidService(auctionStore, cache, log)
	bidService := services.NewBidService(auctionStore, cache, ledger, log)

	e := echo.New()
	RegisterRoutes(e, NewAuctionHandler(auctionService, currentBidService, log), NewBidHandler(bidService, log))
	return &testServer{echo: e, auctions: auctions, bids: bids, ledger: ledger}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createAuction(t *testing.T, base, step string) int64 {
	t.Helper()
	start := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	end := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := `{"start_time":"` + start + `","end_time":"` + end + `","base_price":"` + base + `"`
	if step != "" {
		body += `,"step_price":"` + step + `"`
	}
	body += `}`

	rec := s.do(http.MethodPost, "/api/v1/auctions", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AuctionID
}

func bidder(id string) map[string]string {
	return map[string]string{HeaderBidderID: id}
}

func TestPlaceBid_AcceptedThenRejected(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createAuction(t, "50", "5")
	path := "/api/v1/auctions/" + itoa(id) + "/bids"

	rec := s.do(http.MethodPost, path, `{"amount":"60"}`, bidder("100"))
	require.Equal(t, http.StatusOK, rec.Code)
	var accepted PlaceBidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.True(t, accepted.Accepted)
	assert.Empty(t, accepted.Reason)

	rec = s.do(http.MethodPost, path, `{"amount":"62"}`, bidder("200"))
	require.Equal(t, http.StatusOK, rec.Code, "a losing bid is still a successful request")
	var rejected PlaceBidResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.False(t, rejected.Accepted)
	assert.Equal(t, domain.RejectBidTooLow, rejected.Reason)
	require.NotNil(t, rejected.MinimumNextBid)
	assert.Equal(t, "65", rejected.MinimumNextBid.String())

	rec = s.do(http.MethodGet, "/api/v1/auctions/"+itoa(id)+"/current-bid", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current domain.CurrentBid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, "60", current.Amount.String())
	assert.Equal(t, int64(100), *current.BidderID)
	assert.Equal(t, domain.SourceCache, current.Source)

	require.NoError(t, s.ledger.Close(context.Background()))
	rec = s.do(http.MethodGet, "/api/v1/auctions/"+itoa(id)+"/bids?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history BidHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Bids, 2)
	assert.False(t, history.Bids[0].Accepted, "most recent first")
	assert.True(t, history.Bids[1].Accepted)
}

func TestPlaceBid_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createAuction(t, "50", "")
	path := "/api/v1/auctions/" + itoa(id) + "/bids"

	tests := []struct {
		name    string
		path    string
		body    string
		headers map[string]string
		status  int
	}{
		{"missing bidder", path, `{"amount":"60"}`, nil, http.StatusUnauthorized},
		{"bad bidder", path, `{"amount":"60"}`, bidder("abc"), http.StatusUnauthorized},
		{"zero amount", path, `{"amount":"0"}`, bidder("1"), http.StatusBadRequest},
		{"negative amount", path, `{"amount":"-5"}`, bidder("1"), http.StatusBadRequest},
		{"sub-cent amount", path, `{"amount":"60.005"}`, bidder("1"), http.StatusBadRequest},
		{"amount out of range", path, `{"amount":"10000000000000000"}`, bidder("1"), http.StatusBadRequest},
		{"bad body", path, `{"amount":`, bidder("1"), http.StatusBadRequest},
		{"bad auction id", "/api/v1/auctions/x/bids", `{"amount":"60"}`, bidder("1"), http.StatusBadRequest},
		{"unknown auction", "/api/v1/auctions/999/bids", `{"amount":"60"}`, bidder("1"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

type unavailableStore struct {
	*memory.AuctionStore
}

func (unavailableStore) ApplyBid(context.Context, domain.BidCommand) (bool, error) {
	return false, errors.New("dial tcp 10.0.0.5:3306: i/o timeout")
}

func TestPlaceBid_StoreUnavailable(t *testing.T) {
	store := unavailableStore{memory.NewAuctionStore()}
	s := newTestServer(t, store)
	id := s.createAuction(t, "50", "5")

	rec := s.do(http.MethodPost, "/api/v1/auctions/"+itoa(id)+"/bids", `{"amount":"60"}`, bidder("1"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateAuction(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createAuction(t, "120.50", "")

	rec := s.do(http.MethodGet, "/api/v1/auctions/"+itoa(id), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuctionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "120.5", resp.BasePrice.String())
	assert.Equal(t, "5", resp.StepPrice.String())
	assert.Nil(t, resp.CurrentBid)
	assert.Equal(t, "120.5", resp.MinimumNextBid.String())

	rec = s.do(http.MethodPost, "/api/v1/auctions",
		`{"start_time":"2026-01-02T00:00:00Z","end_time":"2026-01-01T00:00:00Z","base_price":"10"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/auctions/4040", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBidHistory_InvalidLimit(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createAuction(t, "10", "")

	rec := s.do(http.MethodGet, "/api/v1/auctions/"+itoa(id)+"/bids?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
