package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/redis/go-redis/v9"
)

type cachedCatalogService struct {
	next        CatalogService
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewCachedCatalogService(next CatalogService, redisClient *redis.Client) CatalogService {
	return &cachedCatalogService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    time.Minute * 10,
	}
}

func (s *cachedCatalogService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	return s.next.Create(ctx, req)
}

func (s *cachedCatalogService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := fmt.Sprintf("product:%d", id)

	val, err := s.redisClient.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(val), &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.redisClient.Set(ctx, key, data, s.cacheTTL)
	}

	return product, nil
}

func (s *cachedCatalogService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.next.List(ctx, filter)
}

func (s *cachedCatalogService) Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) error {
	if err := s.next.Update(ctx, id, req); err != nil {
		return err
	}

	s.redisClient.Del(ctx, fmt.Sprintf("product:%d", id))
	return nil
}

func (s *cachedCatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}

	s.redisClient.Del(ctx, fmt.Sprintf("product:%d", id))
	return nil
}
