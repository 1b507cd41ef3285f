package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	chclient "meridian/internal/adapters/clickhouse"
	"meridian/internal/adapters/config"
	pgclient "meridian/internal/adapters/postgres"
	"meridian/internal/domain/catalog"
	"meridian/internal/domain/review"
	"meridian/internal/domain/sales"
	chrepo "meridian/internal/repository/clickhouse"
	pgrepo "meridian/internal/repository/postgres"
	"meridian/pkg/logger"
)

// Seeds a demo tenant with a small electronics catalog, competitor
// listings, price history, reviews, and 90 days of daily sales. Safe to
// run repeatedly: every run creates a fresh tenant.

func main() {
	tenants := flag.Int("tenants", 1, "Number of demo tenants to create")
	salesDays := flag.Int("sales-days", 90, "Days of daily sales history per product")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	pg, err := pgclient.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect postgres: %v", err)
	}
	defer pg.Close()

	ch, err := chclient.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect clickhouse: %v", err)
	}
	defer ch.Close()

	ctx := context.Background()
	s := &seeder{
		catalogRepo: pgrepo.NewCatalogRepository(pg.DB()),
		reviewRepo:  pgrepo.NewReviewRepository(pg.DB()),
		salesRepo:   chrepo.NewSalesRepository(ch.Conn()),
		rng:         rand.New(rand.NewSource(*seed)),
		salesDays:   *salesDays,
		log:         log,
	}

	for i := 0; i < *tenants; i++ {
		tenantID := uuid.New()
		if err := s.seedTenant(ctx, tenantID); err != nil {
			log.Fatalf("Failed to seed tenant %s: %v", tenantID, err)
		}
		log.Infow("Seeded tenant", "tenant_id", tenantID)
	}

	log.Info("✓ Seeding complete")
}

type seeder struct {
	catalogRepo *pgrepo.CatalogRepository
	reviewRepo  *pgrepo.ReviewRepository
	salesRepo   *chrepo.SalesRepository
	rng         *rand.Rand
	salesDays   int
	log         *logger.Logger
}

type productSpec struct {
	name     string
	category string
	brand    string
	price    float64
	original float64 // zero when never discounted
	reviews  []reviewSpec
}

type reviewSpec struct {
	rating int
	title  string
	text   string
}

var demoCatalog = []productSpec{
	{
		name: "Aurora Wireless Earbuds", category: "audio", brand: "Aurora",
		price: 59.99, original: 79.99,
		reviews: []reviewSpec{
			{5, "Great sound", "Excellent sound quality and the battery lasts all day. Very happy with this purchase."},
			{4, "Good value", "Good earbuds for the price. Pairing is quick and the case feels solid."},
			{2, "Stopped working", "The left earbud stopped working after two weeks. Asking for a refund."},
			{5, "Love them", "Amazing! Best earbuds I have owned. Highly recommend."},
			{3, "Decent", "Decent sound but the fit is a bit loose. Wish they came with more tip sizes."},
		},
	},
	{
		name: "Aurora Noise Cancelling Headphones", category: "audio", brand: "Aurora",
		price: 149.00,
		reviews: []reviewSpec{
			{5, "Silence at last", "The noise cancelling is fantastic on flights. Comfortable for hours."},
			{4, "Almost perfect", "Great headphones. Would love an app to tune the EQ."},
			{1, "Arrived damaged", "Box was crushed and the headband was cracked. Returning these."},
		},
	},
	{
		name: "Vertex 27in 4K Monitor", category: "displays", brand: "Vertex",
		price: 329.50,
		reviews: []reviewSpec{
			{5, "Crisp", "Beautiful panel, great colors out of the box."},
			{4, "Solid monitor", "Good for work and light gaming. Stand is a little wobbly."},
			{5, "Upgrade worth making", "Huge upgrade from my old 1080p screen. Text is so sharp."},
			{2, "Dead pixels", "Two dead pixels in the corner. Poor quality control."},
		},
	},
	{
		name: "Vertex Mechanical Keyboard", category: "accessories", brand: "Vertex",
		price: 89.00, original: 99.00,
		reviews: []reviewSpec{
			{5, "Clack clack", "Wonderful typing feel. The keycaps are high quality."},
			{4, "Nice board", "Solid build. Software could be easier to use."},
			{3, "Loud", "Good keyboard but much louder than expected. Too expensive for what it is."},
		},
	},
	{
		name: "Nimbus USB-C Hub", category: "accessories", brand: "Nimbus",
		price: 39.99,
		reviews: []reviewSpec{
			{4, "Does the job", "All ports work as advertised. Gets a little warm under load."},
			{1, "Broke in a month", "Stopped passing video after a month. Waste of money."},
			{5, "Travel essential", "Compact and reliable. I take it everywhere."},
		},
	},
}

var competitorListings = []struct {
	source   string
	name     string
	category string
	price    float64
}{
	{"amazon", "SoundCore Wireless Earbuds", "audio", 54.99},
	{"amazon", "QuietComfort Lite Headphones", "audio", 169.00},
	{"bestbuy", "ProView 27in 4K Monitor", "displays", 299.99},
	{"amazon", "TactilePro Mechanical Keyboard", "accessories", 95.00},
	{"walmart", "7-in-1 USB-C Hub", "accessories", 32.50},
}

func (s *seeder) seedTenant(ctx context.Context, tenantID uuid.UUID) error {
	now := time.Now().UTC()

	for i, spec := range demoCatalog {
		p := &catalog.Product{
			ID:            uuid.New(),
			TenantID:      tenantID,
			SKU:           fmt.Sprintf("DEMO-%04d", i+1),
			Name:          spec.name,
			Description:   spec.name + " by " + spec.brand,
			Category:      spec.category,
			Brand:         spec.brand,
			Currency:      "USD",
			Price:         decimal.NewFromFloat(spec.price),
			OriginalPrice: decimal.NewFromFloat(spec.original),
			Inventory:     10 + s.rng.Intn(200),
			CreatedAt:     now.AddDate(0, 0, -s.salesDays),
			UpdatedAt:     now.AddDate(0, 0, -s.rng.Intn(14)),
		}
		if err := s.catalogRepo.CreateProduct(ctx, p); err != nil {
			return err
		}
		if err := s.seedPriceHistory(ctx, p); err != nil {
			return err
		}
		if err := s.seedReviews(ctx, p, spec.reviews); err != nil {
			return err
		}
		if err := s.seedSales(ctx, p); err != nil {
			return err
		}
	}

	for _, c := range competitorListings {
		cp := &catalog.CompetitorProduct{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Source:      c.source,
			SKU:         fmt.Sprintf("%s-%06d", c.source, s.rng.Intn(1000000)),
			Name:        c.name,
			Category:    c.category,
			Price:       decimal.NewFromFloat(c.price),
			URL:         fmt.Sprintf("https://%s.example.com/p/%d", c.source, s.rng.Intn(1000000)),
			CollectedAt: now.AddDate(0, 0, -s.rng.Intn(3)),
		}
		if err := s.catalogRepo.CreateCompetitorProduct(ctx, cp); err != nil {
			return err
		}
	}

	return nil
}

// seedPriceHistory writes a weekly price point walking back from the
// current price with small random drift.
func (s *seeder) seedPriceHistory(ctx context.Context, p *catalog.Product) error {
	price, _ := p.Price.Float64()
	weeks := s.salesDays / 7
	for w := weeks; w >= 0; w-- {
		drift := 1 + (s.rng.Float64()-0.5)*0.06
		point := &catalog.PricePoint{
			ProductID:  p.ID,
			Price:      decimal.NewFromFloat(price * drift).Round(2),
			RecordedAt: time.Now().UTC().AddDate(0, 0, -7*w),
		}
		if err := s.catalogRepo.RecordPricePoint(ctx, point); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedReviews(ctx context.Context, p *catalog.Product, specs []reviewSpec) error {
	for _, rs := range specs {
		rev := &review.Review{
			ID:        uuid.New(),
			TenantID:  p.TenantID,
			ProductID: p.ID,
			Rating:    rs.rating,
			Title:     rs.title,
			Text:      rs.text,
			Author:    fmt.Sprintf("demo-user-%d", s.rng.Intn(10000)),
			Verified:  s.rng.Float64() < 0.7,
			CreatedAt: time.Now().UTC().AddDate(0, 0, -s.rng.Intn(s.salesDays)),
		}
		rev.UpdatedAt = rev.CreatedAt
		if err := s.reviewRepo.Create(ctx, rev); err != nil {
			return err
		}
	}
	return nil
}

// seedSales generates daily sales with a mild upward trend and a weekend
// bump so the forecast agent has realistic structure to find.
func (s *seeder) seedSales(ctx context.Context, p *catalog.Product) error {
	price, _ := p.Price.Float64()
	base := 3 + s.rng.Float64()*12

	rows := make([]*sales.DailySales, 0, s.salesDays)
	for d := s.salesDays; d > 0; d-- {
		date := time.Now().UTC().AddDate(0, 0, -d).Truncate(24 * time.Hour)

		trend := 1 + 0.002*float64(s.salesDays-d)
		seasonal := 1.0
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			seasonal = 1.3
		}
		noise := 1 + (s.rng.Float64()-0.5)*0.4

		units := int64(math.Round(base * trend * seasonal * noise))
		if units < 0 {
			units = 0
		}
		rows = append(rows, &sales.DailySales{
			TenantID:  p.TenantID,
			ProductID: p.ID,
			Date:      date,
			Units:     units,
			Revenue:   float64(units) * price,
		})
	}
	return s.salesRepo.InsertDailySales(ctx, rows)
}
