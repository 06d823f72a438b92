package main

import (
	"flag"
	"log"

	"eshop/config"
	"eshop/db"
	"eshop/seeder"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	importFlag := flag.Bool("import", false, "import products from the fixture file")
	deleteFlag := flag.Bool("delete", false, "delete all products")
	file := flag.String("file", "products.yaml", "fixture file (.yaml, .yml or .json)")
	flag.Parse()

	if *importFlag == *deleteFlag {
		log.Fatal("use exactly one of -import or -delete")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.MustLoad()
	logger, err := config.NewLogger(config.LoggerConfig{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	conn, err := db.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close(conn)

	if *deleteFlag {
		n, err := seeder.DeleteAll(conn)
		if err != nil {
			logger.Fatal("delete failed", zap.Error(err))
		}
		logger.Info("products deleted", zap.Int64("count", n))
		return
	}

	fixtures, err := seeder.Load(*file)
	if err != nil {
		logger.Fatal("load failed", zap.Error(err))
	}
	n, err := seeder.Import(conn, fixtures)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	logger.Info("products imported", zap.Int("count", n), zap.String("file", *file))
}
