package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"roomstudio/internal/config"
	"roomstudio/internal/console"
	"roomstudio/internal/debug"
	"roomstudio/internal/gizmo"
	"roomstudio/internal/hud"
	"roomstudio/internal/interact"
	"roomstudio/internal/logger"
	"roomstudio/internal/material"
	"roomstudio/internal/prototype"
	"roomstudio/internal/reconcile"
	"roomstudio/internal/room"
	"roomstudio/internal/scenegraph"
	"roomstudio/internal/store"
	"roomstudio/internal/viewport"
)

func main() {
	prefs, _ := config.Load()

	level, err := zapcore.ParseLevel(prefs.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log := logger.New(logger.Options{Level: level})
	defer log.Sync()

	savePrefs := func() {
		if err := config.Save(prefs); err != nil {
			log.Warn("save prefs", zap.Error(err))
		}
	}

	protos := prototype.NewRegistry(log.Logger)

	factory := viewport.NewMaterials(log.Logger)
	mats, err := material.NewRegistry(factory, log.Logger)
	if err != nil {
		log.Fatal("material catalog", zap.Error(err))
	}
	if prefs.MaterialCatalog != "" {
		if err := mats.LoadFile(prefs.MaterialCatalog); err != nil {
			log.Warn("external material catalog", zap.Error(err))
		}
		if err := mats.Watch(prefs.MaterialCatalog); err != nil {
			log.Warn("material catalog watch", zap.Error(err))
		}
		defer mats.Close()
	}

	st := store.New(protos, log.Logger)
	if mode, err := store.ParseMode(prefs.Mode); err == nil {
		st.SetMode(mode)
	} else {
		log.Warn("prefs mode", zap.Error(err))
	}

	graph := scenegraph.New()
	giz := gizmo.New()
	shapes := viewport.NewShapes()
	recon := reconcile.New(st, graph, protos, mats, giz, shapes, log.Logger)
	control := interact.New(st, graph, giz, log.Logger)

	cmds := console.NewRegistry(st.Mode)
	console.RegisterStudio(cmds, console.Deps{
		Store:     st,
		Protos:    protos,
		Materials: mats,
		Prefs:     &prefs,
		Log:       log.Logger,
	})
	cons := console.New(log, cmds)

	panels := viewport.NewPanels(viewport.PanelDeps{
		Store:     st,
		Protos:    protos,
		Materials: mats,
		Graph:     graph,
		Gizmo:     giz,
		Prefs:     &prefs,
		SavePrefs: savePrefs,
		Log:       log.Logger,
	})

	viewport.Run(viewport.Config{
		Title:    "Room Studio",
		Width:    prefs.WindowWidth,
		Height:   prefs.WindowHeight,
		FontPath: "assets/fonts/studio.ttf",
	}, viewport.Deps{
		Store:     st,
		Materials: mats,
		Graph:     graph,
		Recon:     recon,
		Gizmo:     giz,
		Control:   control,
		Console:   cons,
		HUD:       hud.New(st, log.Logger),
		Debug:     debug.New(st, graph, recon),
		Panels:    panels,
		Factory:   factory,
		Shapes:    shapes,
		Prefs:     &prefs,
		SavePrefs: savePrefs,
		Room:      room.DefaultOptions(),
		Log:       log.Logger,
	})
}
