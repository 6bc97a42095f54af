// Команда seed наполняет каталог демонстрационными товарами.
// Предназначена для локальной разработки поверх postgres-хранилища.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/docstore/postgres"
)

const defaultTimeout = 30 * time.Second

var demoProducts = []catalog.CreateInput{
	{Name: "Espresso Beans 1kg", Description: "Dark roast arabica blend", Price: "18.50", Category: "coffee", Stock: 40},
	{Name: "Filter Blend 500g", Description: "Light roast for pour-over", Price: "12.00", Category: "coffee", Stock: 25},
	{Name: "Ceramic Mug", Description: "350ml stoneware mug", Price: "9.90", Category: "accessories", Stock: 60},
	{Name: "Hand Grinder", Description: "Steel burr travel grinder", Price: "45.00", Category: "accessories", Stock: 12},
	{Name: "Gift Card", Description: "Digital gift card", Price: "25.00", Category: "gifts", Stock: 999},
}

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(ctx, 0); err != nil {
		fail("apply migrations: %v", err)
	}

	svc := catalog.NewService(store, log.WithField("component", "seed"))
	for _, input := range demoProducts {
		product, err := svc.Create(ctx, input)
		if err != nil {
			fail("create product %q: %v", input.Name, err)
		}
		fmt.Printf("created %s (%s) price=%s stock=%d\n", product.Name, product.ID, product.Price, product.Stock)
	}

	fmt.Printf("seeded %d products\n", len(demoProducts))
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
