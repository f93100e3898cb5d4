package devstack

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// faultInjector fails chosen requests and counts every request by method and path.
type faultInjector struct {
	mu     sync.Mutex
	faults map[string][]int
	counts map[string]int
}

func newFaultInjector() *faultInjector {
	return &faultInjector{
		faults: make(map[string][]int),
		counts: make(map[string]int),
	}
}

func faultKey(method, path string) string {
	return method + " " + path
}

// failNext makes the next request to method+path answer with status.
// Calls queue up.
func (f *faultInjector) failNext(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := faultKey(method, path)
	f.faults[key] = append(f.faults[key], status)
}

func (f *faultInjector) requests(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[faultKey(method, path)]
}

func (f *faultInjector) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := faultKey(c.Request.Method, c.Request.URL.Path)

		f.mu.Lock()
		f.counts[key]++
		var status int
		if queued := f.faults[key]; len(queued) > 0 {
			status = queued[0]
			f.faults[key] = queued[1:]
		}
		f.mu.Unlock()

		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"message": "injected fault: " + http.StatusText(status)})
			return
		}
		c.Next()
	}
}
