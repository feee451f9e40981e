package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/solr_query/config"
	"github.com/amankumarsingh77/solr_query/internal/cache"
	"github.com/amankumarsingh77/solr_query/internal/common/database"
	"github.com/amankumarsingh77/solr_query/internal/history"
	"github.com/amankumarsingh77/solr_query/internal/query"
	"github.com/amankumarsingh77/solr_query/internal/solr"
	"github.com/amankumarsingh77/solr_query/pkg/search"
	"github.com/amankumarsingh77/solr_query/pkg/solrquery"
	"github.com/gofiber/fiber/v2"
)

func main() {
	var (
		configFile = flag.String("config", "solrq.yaml", "Path to configuration file")
		mode       = flag.String("mode", "render", "Mode: render, search or serve")
		exprFile   = flag.String("expr", "-", "Path to a JSON query expression, - for stdin")
		page       = flag.Int("page", 1, "Result page for search mode")
		pageSize   = flag.Int("rows", 0, "Rows per page for search mode")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Printf("Failed to load configuration from %s: %v", *configFile, err)
		log.Println("Using default configuration...")
		cfg = config.GetDefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch *mode {
	case "render":
		expr, err := readExpr(*exprFile)
		if err != nil {
			log.Fatal(err)
		}
		engine := query.NewQueryEngine(nil, nil, nil, &cfg.Query)
		res, err := engine.Render(expr)
		if err != nil {
			log.Fatalf("Failed to render query: %v", err)
		}
		printJSON(res)

	case "search":
		expr, err := readExpr(*exprFile)
		if err != nil {
			log.Fatal(err)
		}
		client, err := solr.NewClient(&cfg.Solr)
		if err != nil {
			log.Fatalf("Failed to initialize the solr client: %v", err)
		}
		engine := query.NewQueryEngine(client, nil, nil, &cfg.Query)
		res, err := engine.Search(ctx, expr, *page, *pageSize)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		log.Printf("Found %d documents in %.3fs", res.NumFound, res.ResponseTime)
		printJSON(res)

	case "serve":
		serve(ctx, cfg)

	default:
		log.Fatalf("Unknown mode: %s. Use render, search or serve.", *mode)
	}
}

func serve(ctx context.Context, cfg *config.Config) {
	client, err := solr.NewClient(&cfg.Solr)
	if err != nil {
		log.Fatalf("Failed to initialize the solr client: %v", err)
	}
	log.Printf("Sending queries to %s", client.SelectURL())

	var responseCache query.ResponseCache
	if cfg.Cache.Enabled {
		layered := &cache.Layered{Local: cache.NewLRUCache[string, []byte](cfg.Cache.LocalSize, cfg.Cache.TTL)}
		defer layered.Local.Close()
		if cfg.Redis.Host != "" {
			redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
			if err != nil {
				log.Fatal(err)
			}
			defer redisClient.Close()
			layered.Remote = cache.NewRedisCache(redisClient, cfg.Redis.Prefix, cfg.Cache.TTL)
		}
		responseCache = layered
	}

	var store search.QueryStore
	if cfg.Mongo.URI != "" {
		mongoClient, err := database.NewMongoClient(ctx, &cfg.Mongo)
		if err != nil {
			log.Fatal(err)
		}
		defer mongoClient.Disconnect()
		store = mongoClient
	} else {
		log.Println("mongo.uri is empty, saved queries are disabled")
	}

	var (
		recorder      query.HistoryRecorder
		historyReader search.HistoryReader
	)
	if cfg.History.DBURL != "" {
		historyStore, err := history.NewPostgresStore(ctx, &cfg.History)
		if err != nil {
			log.Fatal(err)
		}
		defer historyStore.Close()
		recorder, historyReader = historyStore, historyStore
	} else {
		log.Println("history.dburl is empty, search history is disabled")
	}

	engine := query.NewQueryEngine(client, responseCache, recorder, &cfg.Query)
	searchAPI := search.NewSearchAPI(engine, store, historyReader)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Search.ReadTimeout,
		WriteTimeout: cfg.Search.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	})
	searchAPI.RegisterRoutes(app)

	go func() {
		log.Printf("Starting search API on %s", cfg.Search.HTTPAddr)
		if err := app.Listen(cfg.Search.HTTPAddr); err != nil {
			log.Fatalf("Fiber app failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Fiber shutdown failed: %v", err)
	}
	log.Println("Server exited properly")
}

func readExpr(path string) (*solrquery.Expr, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open expression file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var expr solrquery.Expr
	if err := json.NewDecoder(r).Decode(&expr); err != nil {
		return nil, fmt.Errorf("cannot decode expression: %w", err)
	}
	return &expr, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}
