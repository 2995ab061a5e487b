package media

import "github.com/lanikai/alohacast/internal/logging"

var log = logging.DefaultLogger.WithTag("media")
