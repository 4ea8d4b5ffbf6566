package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"unilife/backend/config"
	"unilife/backend/internal/dto"
	"unilife/backend/pkg/metrics"
)

// ── 地点检索业务错误 ──

var (
	ErrPlacesUnavailable = errors.New("地点检索服务未配置")
	ErrPlacesUpstream    = errors.New("地点检索服务暂时不可用")
)

const placesCachePrefix = "places:search:"

// PlacesService 地点检索（代理 Google Places Text Search）
type PlacesService interface {
	Search(ctx context.Context, req *dto.PlacesSearchRequest) ([]dto.PlaceResult, error)
}

type placesService struct {
	cfg    *config.PlacesConfig
	cache  Cache
	client *http.Client
	logger *zap.Logger
}

// NewPlacesService 创建 PlacesService 实例；client 为 nil 时按配置超时新建
func NewPlacesService(cfg *config.PlacesConfig, cache Cache, client *http.Client, logger *zap.Logger) PlacesService {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &placesService{cfg: cfg, cache: cache, client: client, logger: logger}
}

// textSearchResponse 上游响应中用到的字段
type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID          string  `json:"place_id"`
		Name             string  `json:"name"`
		FormattedAddress string  `json:"formatted_address"`
		Rating           float64 `json:"rating"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (s *placesService) Search(ctx context.Context, req *dto.PlacesSearchRequest) ([]dto.PlaceResult, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrPlacesUnavailable
	}

	query := strings.TrimSpace(req.Query)
	key := placesCacheKey(query, req.Location, req.Radius)

	if s.cache != nil {
		var cached []dto.PlaceResult
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取地点缓存失败", zap.Error(err))
		} else if hit {
			metrics.RecordPlaces("cache")
			return cached, nil
		}
	}

	results, err := s.fetch(ctx, query, req.Location, req.Radius)
	if err != nil {
		metrics.RecordPlaces("error")
		return nil, err
	}
	metrics.RecordPlaces("upstream")

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, results, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("写入地点缓存失败", zap.Error(err))
		}
	}
	return results, nil
}

func (s *placesService) fetch(ctx context.Context, query, location string, radius int) ([]dto.PlaceResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", s.cfg.APIKey)
	if location != "" {
		params.Set("location", location)
		if radius > 0 {
			params.Set("radius", strconv.Itoa(radius))
		}
	}
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/textsearch/json?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Warn("请求地点检索服务失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPlacesUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("地点检索服务返回异常状态码", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d", ErrPlacesUpstream, resp.StatusCode)
	}

	var body textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlacesUpstream, err)
	}

	switch body.Status {
	case "OK", "ZERO_RESULTS":
	default:
		s.logger.Warn("地点检索服务返回错误",
			zap.String("status", body.Status),
			zap.String("message", body.ErrorMessage),
		)
		return nil, fmt.Errorf("%w: %s", ErrPlacesUpstream, body.Status)
	}

	results := make([]dto.PlaceResult, 0, len(body.Results))
	for _, r := range body.Results {
		results = append(results, dto.PlaceResult{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Address: r.FormattedAddress,
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Rating:  r.Rating,
		})
	}
	return results, nil
}

// placesCacheKey 查询条件归一化后取 sha256，避免键中出现任意用户输入
func placesCacheKey(query, location string, radius int) string {
	raw := strings.ToLower(query) + "|" + location + "|" + strconv.Itoa(radius)
	sum := sha256.Sum256([]byte(raw))
	return placesCachePrefix + hex.EncodeToString(sum[:])
}
