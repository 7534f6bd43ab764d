package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

const readinessTimeout = 5 * time.Second

// Checker probes one backing service for readiness.
type Checker struct {
	Component string
	Check     func(ctx context.Context) error
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) Checker {
	return Checker{Component: "postgres", Check: pool.Ping}
}

// MinIOCheck verifies the image bucket is reachable.
func MinIOCheck(client *minio.Client, bucket string) Checker {
	return Checker{Component: "minio", Check: func(ctx context.Context) error {
		_, err := client.BucketExists(ctx, bucket)
		return err
	}}
}

// RedisCheck pings the token cache.
func RedisCheck(client *redis.Client) Checker {
	return Checker{Component: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

func registerHealthRoutes(router *gin.Engine, checks []Checker) {
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/health/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "degraded",
					"component": check.Component,
					"error":     err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
