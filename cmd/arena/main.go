// Package main runs a headless arena duel between two character templates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/ricochet/internal/config"
	"github.com/cory-johannsen/ricochet/internal/game/ability"
	"github.com/cory-johannsen/ricochet/internal/game/arena"
	"github.com/cory-johannsen/ricochet/internal/game/character"
	"github.com/cory-johannsen/ricochet/internal/game/dice"
	"github.com/cory-johannsen/ricochet/internal/game/effect"
	"github.com/cory-johannsen/ricochet/internal/game/inventory"
	"github.com/cory-johannsen/ricochet/internal/observability"
	"github.com/cory-johannsen/ricochet/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/arena.yaml", "path to configuration file")
	redID := flag.String("red", "knight", "character template for the first fighter")
	blueID := flag.String("blue", "duelist", "character template for the second fighter")
	rounds := flag.Int("rounds", 1, "number of rounds to fight")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := loadContent(ctx, cfg.Content)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("effects", len(lib.effects.All())),
		zap.Int("abilities", len(lib.abilities.All())),
		zap.Int("armaments", len(lib.armaments.AllArmaments())),
		zap.Int("characters", len(lib.characters.All())),
		zap.Duration("elapsed", time.Since(start)),
	)

	fighterCfg := cfg.Combat.Fighter()
	if id := cfg.Combat.StaggerEffect; id != "" {
		def, ok := lib.effects.Get(id)
		if !ok {
			logger.Warn("stagger effect not found; staggering without an effect", zap.String("effect", id))
		}
		fighterCfg.StaggerEffect = def
	}

	var src dice.Source = dice.NewCryptoSource()
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(uint64(cfg.Simulation.Seed))
	}
	roller := dice.NewLoggedRoller(src, logger)

	red, ok := lib.characters.Get(*redID)
	if !ok {
		logger.Fatal("unknown character template", zap.String("template", *redID))
	}
	blue, ok := lib.characters.Get(*blueID)
	if !ok {
		logger.Fatal("unknown character template", zap.String("template", *blueID))
	}

	opts := arena.Options{
		Simulation: cfg.Simulation,
		Combat:     cfg.Combat,
		Arena:      cfg.Arena,
		Content:    character.Content{Abilities: lib.abilities, Armaments: lib.armaments},
		Fighter:    fighterCfg,
		Roller:     roller,
		Logger:     logger,
	}
	if cfg.Scripting.ScriptDir != "" {
		mgr, err := loadScripts(cfg.Scripting, roller, logger, red, blue)
		if err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		defer mgr.Close()
		opts.Scripts = mgr
	}

	world := arena.New(opts)
	if _, _, err := world.SpawnDuel(red, blue); err != nil {
		logger.Fatal("spawning duel", zap.Error(err))
	}

	wins := make(map[string]int)
	for round := 1; round <= *rounds; round++ {
		if round > 1 {
			world.Reset()
		}
		out, err := world.Run(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("arena interrupted", zap.Int("round", round))
				break
			}
			logger.Fatal("running arena", zap.Error(err))
		}
		winner := out.Winner
		if winner == "" {
			winner = "draw"
		}
		wins[winner]++
		logger.Info("round finished",
			zap.Int("round", round),
			zap.String("winner", winner),
			zap.Any("survivors", out.Survivors),
			observability.SimTime(out.Elapsed),
		)
	}
	logger.Info("arena complete",
		zap.Any("wins", wins),
		zap.Duration("elapsed", time.Since(start)),
	)
}

type library struct {
	effects    *effect.Registry
	abilities  *ability.Registry
	armaments  *inventory.Registry
	characters *character.Registry
}

// loadContent reads every content directory concurrently, then resolves
// ability references against the loaded effects.
func loadContent(ctx context.Context, cfg config.ContentConfig) (*library, error) {
	var lib library
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		reg, err := effect.LoadDirectory(cfg.EffectsDir)
		lib.effects = reg
		return err
	})
	g.Go(func() error {
		reg, err := ability.LoadDirectory(cfg.AbilitiesDir)
		lib.abilities = reg
		return err
	})
	g.Go(func() error {
		reg, err := inventory.LoadRegistry(cfg.ArmamentsDir)
		lib.armaments = reg
		return err
	})
	g.Go(func() error {
		reg, err := character.LoadDirectory(cfg.CharactersDir)
		lib.characters = reg
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := lib.abilities.Resolve(lib.effects); err != nil {
		return nil, fmt.Errorf("resolving abilities: %w", err)
	}
	return &lib, nil
}

// loadScripts creates one VM per script key named by the fighting templates,
// plus the global fallback when script_dir/global exists.
func loadScripts(cfg config.ScriptingConfig, roller *dice.Roller, logger *zap.Logger, tmpls ...*character.Template) (*scripting.Manager, error) {
	mgr := scripting.NewManager(roller, logger)
	global := filepath.Join(cfg.ScriptDir, "global")
	if info, err := os.Stat(global); err == nil && info.IsDir() {
		if err := mgr.LoadGlobal(global, cfg.InstructionLimit); err != nil {
			return nil, err
		}
	}
	loaded := make(map[string]bool)
	for _, t := range tmpls {
		if t.Script == "" || loaded[t.Script] {
			continue
		}
		if err := mgr.Load(t.Script, filepath.Join(cfg.ScriptDir, t.Script), cfg.InstructionLimit); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.ID, err)
		}
		loaded[t.Script] = true
	}
	return mgr, nil
}
