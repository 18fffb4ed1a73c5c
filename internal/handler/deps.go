package handler

import (
	"github.com/SharmaG-28/Virtual-Campus/internal/app/campus"
	"github.com/SharmaG-28/Virtual-Campus/internal/configs"
)

// AppDeps holds what the HTTP layer needs from the rest of the server.
type AppDeps struct {
	Manager *campus.Manager
	Config  *configs.AppConfig
}
