package alohacast

import "github.com/lanikai/alohacast/internal/logging"

var log = logging.DefaultLogger.WithTag("capture")
