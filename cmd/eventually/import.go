package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/eventually/api"
	"github.com/BaSui01/eventually/internal/database"
	"github.com/BaSui01/eventually/internal/model"
	"github.com/BaSui01/eventually/internal/repository"
)

// =============================================================================
// 📥 import 命令
// =============================================================================

// importResult 一次导入的统计
type importResult struct {
	Events        int
	Images        int
	SkippedImages int
	TotalEvents   int64
	TotalImages   int64
}

func runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envDir := fs.String("env-dir", "env_files", "Directory holding .env_base and .env_<env> files")
	eventsPath := fs.String("events", "", "JSON file with an array of events")
	imagesPath := fs.String("images", "", "JSON file with an array of images")
	runMigrations := fs.Bool("migrate", false, "Apply pending migrations before importing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *eventsPath == "" && *imagesPath == "" {
		return errors.New("at least one of --events or --images is required")
	}

	cfg, err := loadConfig(*configPath, *envDir)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	if *runMigrations {
		if err := migrateUp(ctx, cfg, logger); err != nil {
			return err
		}
	}

	pm := database.NewPoolManager(logger)
	if err := pm.Init(ctx, cfg.Database); err != nil {
		return err
	}
	defer func() {
		if err := pm.Dispose(context.Background()); err != nil {
			logger.Warn("failed to dispose database pool", zap.Error(err))
		}
	}()

	res, err := importData(ctx, pm, *eventsPath, *imagesPath, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d events, %d images (%d images skipped)\n", res.Events, res.Images, res.SkippedImages)
	fmt.Printf("Database now holds %d events, %d images\n", res.TotalEvents, res.TotalImages)
	return nil
}

// importData 在同一事务中写入图片与活动，任一记录失败则全部回滚。
// 已存在路径的图片跳过。
func importData(ctx context.Context, pm *database.PoolManager, eventsPath, imagesPath string, logger *zap.Logger) (importResult, error) {
	var res importResult

	var images []api.ImageCreate
	if imagesPath != "" {
		if err := readJSONFile(imagesPath, &images); err != nil {
			return res, err
		}
	}
	var events []api.EventCreate
	if eventsPath != "" {
		if err := readJSONFile(eventsPath, &events); err != nil {
			return res, err
		}
	}

	err := pm.WithTransaction(ctx, func(ctx context.Context, s *database.Session) error {
		imageRepo := repository.NewImageRepository(s)
		eventRepo := repository.NewEventRepository(s)

		newImages := make([]*model.Image, 0, len(images))
		seen := make(map[string]bool, len(images))
		for _, img := range images {
			path := strings.TrimSpace(img.Path)
			exists, err := imageRepo.PathExists(ctx, path)
			if err != nil {
				return err
			}
			if exists || seen[path] {
				logger.Info("skipping existing image", zap.String("path", path))
				res.SkippedImages++
				continue
			}
			seen[path] = true
			img.Path = path
			newImages = append(newImages, img.Model())
		}
		if err := imageRepo.CreateMany(ctx, newImages); err != nil {
			return fmt.Errorf("import images: %w", err)
		}
		res.Images = len(newImages)

		newEvents := make([]*model.Event, 0, len(events))
		for i, e := range events {
			e.Time = normalizeClock(e.Time)
			ev, err := e.Model()
			if err != nil {
				return fmt.Errorf("import event %d (%q): %w", i, e.Title, err)
			}
			newEvents = append(newEvents, ev)
		}
		if err := eventRepo.CreateMany(ctx, newEvents); err != nil {
			return fmt.Errorf("import events: %w", err)
		}
		res.Events = len(newEvents)
		return nil
	})
	if err != nil {
		return importResult{}, err
	}

	logger.Info("data import committed",
		zap.Int("events", res.Events),
		zap.Int("images", res.Images),
		zap.Int("skipped_images", res.SkippedImages),
	)

	err = pm.WithSession(ctx, func(ctx context.Context, s *database.Session) error {
		var err error
		if res.TotalEvents, err = repository.NewEventRepository(s).Count(ctx, nil); err != nil {
			return err
		}
		res.TotalImages, err = repository.NewImageRepository(s).Count(ctx, nil)
		return err
	})
	return res, err
}

func readJSONFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// normalizeClock HH:MM 补齐为 HH:MM:SS，其它格式原样交给校验
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format(model.TimeLayout)
	}
	return s
}
