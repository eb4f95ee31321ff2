package api

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"FinTrack/internal/serviceiface"
)

type GatewayService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewGatewayService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &GatewayService{config: cfg, pool: pool}
}

func (s *GatewayService) Name() string {
	return "gateway"
}

func (s *GatewayService) Start() error {
	go StartGateway(s.config, s.pool)
	return nil
}

func (s *GatewayService) Stop() error {
	// Implement stop logic if needed
	return nil
}
