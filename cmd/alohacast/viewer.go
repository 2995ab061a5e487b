package main

import (
	"bytes"
	"image/jpeg"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"
	"github.com/gorilla/websocket"

	"github.com/lanikai/alohacast"
)

const jpegQuality = 80

// viewer serves the most recent frames to browsers, as JPEG over a websocket
// and as a still image.
type viewer struct {
	frames alohacast.Subscriber
	enc    *jpegEncoder

	mu     sync.Mutex
	latest *alohacast.Frame
}

func newViewer(frames alohacast.Subscriber) *viewer {
	return &viewer{
		frames: frames,
		enc:    newJPEGEncoder(16),
	}
}

// Emit records the latest frame for /frame.jpg.
func (v *viewer) Emit(f *alohacast.Frame) {
	v.mu.Lock()
	v.latest = f
	v.mu.Unlock()
}

func (v *viewer) register(mux *http.ServeMux) {
	mux.HandleFunc("/", v.handleIndex)
	mux.HandleFunc("/frame.jpg", v.handleFrame)
	mux.HandleFunc("/ws", v.handleWebsocket)
}

func (v *viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (v *viewer) handleFrame(w http.ResponseWriter, r *http.Request) {
	v.mu.Lock()
	f := v.latest
	v.mu.Unlock()
	if f == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	data, err := v.enc.Encode(f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

func (v *viewer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}
	defer ws.Close()

	// Keep at most two frames for a slow browser; older ones are dropped.
	frames := v.frames.Subscribe(2)
	defer v.frames.Unsubscribe(frames)

	// The browser sends nothing, but reading notices when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug("viewer %s connected", r.RemoteAddr)
	for {
		select {
		case f, ok := <-frames:
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "capture ended"))
				return
			}
			data, err := v.enc.Encode(f)
			if err != nil {
				log.Warn("encoding frame %d: %v", f.Seq, err)
				continue
			}
			ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				log.Debug("viewer %s: %v", r.RemoteAddr, err)
				return
			}
		case <-gone:
			log.Debug("viewer %s disconnected", r.RemoteAddr)
			return
		}
	}
}

// jpegEncoder compresses each frame at most once, however many viewers ask
// for it at the same time.
type jpegEncoder struct {
	group singleflight.Group

	mu    sync.Mutex
	cache *lru.Cache
}

func newJPEGEncoder(size int) *jpegEncoder {
	return &jpegEncoder{cache: lru.New(size)}
}

func (e *jpegEncoder) Encode(f *alohacast.Frame) ([]byte, error) {
	e.mu.Lock()
	cached, ok := e.cache.Get(f.Seq)
	e.mu.Unlock()
	if ok {
		return cached.([]byte), nil
	}

	v, err := e.group.Do(frameKey(f), func() (interface{}, error) {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, f, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache.Add(f.Seq, buf.Bytes())
		e.mu.Unlock()
		return buf.Bytes(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func frameKey(f *alohacast.Frame) string {
	return "frame/" + strconv.FormatUint(f.Seq, 10)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>alohacast</title>
<style>
  body { margin: 0; background: #111; display: flex; justify-content: center; }
  img { max-height: 100vh; }
</style>
</head>
<body>
<img id="screen" alt="">
<script>
  const img = document.getElementById("screen");
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.binaryType = "blob";
  ws.onmessage = (ev) => {
    const url = URL.createObjectURL(ev.data);
    img.onload = () => URL.revokeObjectURL(url);
    img.src = url;
  };
</script>
</body>
</html>
`
