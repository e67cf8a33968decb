// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/hookflow/hookflow/pkg/actions/httprequest"
	"github.com/hookflow/hookflow/pkg/actions/sendemail"
	"github.com/hookflow/hookflow/pkg/registry"
)

func registerNativeActions(reg *registry.Registry) {
	reg.RegisterAction(httprequest.NewActionFactory())
	reg.RegisterAction(sendemail.NewActionFactory())
}

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeActions(reg)

	return reg
}
