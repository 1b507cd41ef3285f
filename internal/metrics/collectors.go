package metrics

import (
	"context"
	"time"

	"meridian/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// CustomCollector collects catalog and pipeline gauges from the databases
type CustomCollector struct {
	log        *logger.Logger
	postgres   *sqlx.DB
	clickhouse driver.Conn
	redis      *redis.Client

	// Descriptors
	totalTenants    *prometheus.Desc
	totalProducts   *prometheus.Desc
	totalReviews    *prometheus.Desc
	flaggedReviews  *prometheus.Desc
	salesRows       *prometheus.Desc
	trackedJobs     *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, clickhouse driver.Conn, redis *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:        log,
		postgres:   postgres,
		clickhouse: clickhouse,
		redis:      redis,

		totalTenants: prometheus.NewDesc(
			"meridian_total_tenants",
			"Total number of tenants with catalog data",
			nil, nil,
		),
		totalProducts: prometheus.NewDesc(
			"meridian_total_products",
			"Total number of catalog products",
			nil, nil,
		),
		totalReviews: prometheus.NewDesc(
			"meridian_total_reviews",
			"Total number of stored reviews",
			nil, nil,
		),
		flaggedReviews: prometheus.NewDesc(
			"meridian_flagged_reviews",
			"Number of reviews flagged by the intake layer",
			nil, nil,
		),
		salesRows: prometheus.NewDesc(
			"meridian_sales_rows_30d",
			"Daily sales rows recorded in the last 30 days",
			nil, nil,
		),
		trackedJobs: prometheus.NewDesc(
			"meridian_tracked_jobs",
			"Analysis jobs currently tracked in the job store",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalTenants
	ch <- c.totalProducts
	ch <- c.totalReviews
	ch <- c.flaggedReviews
	ch <- c.salesRows
	ch <- c.trackedJobs
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectCatalogStats(ctx, ch)
	c.collectReviewStats(ctx, ch)
	c.collectSalesStats(ctx, ch)
	c.collectJobStats(ctx, ch)
}

func (c *CustomCollector) collectCatalogStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var tenants int
	if err := c.postgres.GetContext(ctx, &tenants, "SELECT COUNT(DISTINCT tenant_id) FROM products"); err != nil {
		c.log.Error("Failed to collect tenant count metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalTenants, prometheus.GaugeValue, float64(tenants))

	var products int
	if err := c.postgres.GetContext(ctx, &products, "SELECT COUNT(*) FROM products"); err != nil {
		c.log.Error("Failed to collect product count metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalProducts, prometheus.GaugeValue, float64(products))
}

func (c *CustomCollector) collectReviewStats(ctx context.Context, ch chan<- prometheus.Metric) {
	var total int
	if err := c.postgres.GetContext(ctx, &total, "SELECT COUNT(*) FROM reviews"); err != nil {
		c.log.Error("Failed to collect review count metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalReviews, prometheus.GaugeValue, float64(total))

	var flagged int
	if err := c.postgres.GetContext(ctx, &flagged, "SELECT COUNT(*) FROM reviews WHERE flagged = true"); err != nil {
		c.log.Error("Failed to collect flagged review metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.flaggedReviews, prometheus.GaugeValue, float64(flagged))
}

func (c *CustomCollector) collectSalesStats(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.clickhouse == nil {
		return
	}

	var count uint64
	row := c.clickhouse.QueryRow(ctx, "SELECT COUNT(*) FROM daily_sales WHERE date > now() - INTERVAL 30 DAY")
	if err := row.Scan(&count); err != nil {
		c.log.Error("Failed to collect sales row metric", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.salesRows, prometheus.GaugeValue, float64(count))
}

func (c *CustomCollector) collectJobStats(ctx context.Context, ch chan<- prometheus.Metric) {
	if c.redis == nil {
		return
	}

	var cursor uint64
	var total int
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, "job:*", 500).Result()
		if err != nil {
			c.log.Error("Failed to collect job store metric", "error", err)
			return
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	ch <- prometheus.MustNewConstMetric(c.trackedJobs, prometheus.GaugeValue, float64(total))
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
