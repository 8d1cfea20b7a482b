package livehttp

import (
	"bufio"
	"context"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ethpilot/internal/agent/ports"
	"ethpilot/internal/logger"
	"ethpilot/internal/store/model"
)

const maxLogLineSize = 1024 * 1024

// StatusSource 提供最近一轮周期结果。
type StatusSource interface {
	LastReport() (ports.CycleReport, bool)
}

// JournalSource 只读的周期日志。
type JournalSource interface {
	ListCycles(ctx context.Context, limit int) ([]model.CycleModel, error)
	ListEvents(ctx context.Context, traceID string, limit int) ([]model.OrderEventModel, error)
}

// Router 暴露状态查询接口。
type Router struct {
	Status   StatusSource
	Journal  JournalSource
	logPaths map[string]string
	logNames []string
}

// NewRouter 构造 live HTTP router。
func NewRouter(status StatusSource, journal JournalSource, logPaths map[string]string) *Router {
	names := make([]string, 0, len(logPaths))
	for name, path := range logPaths {
		if strings.TrimSpace(path) == "" || strings.TrimSpace(name) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return &Router{Status: status, Journal: journal, logPaths: logPaths, logNames: names}
}

// Register 将路由挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/status", r.handleStatus)
	group.GET("/cycles", r.handleCycles)
	group.GET("/events", r.handleEvents)
	group.GET("/logs", r.handleLogs)
}

func (r *Router) handleStatus(c *gin.Context) {
	if r.Status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "status unavailable"})
		return
	}
	rep, ok := r.Status.LastReport()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "running", "last_cycle": rep})
}

func (r *Router) handleCycles(c *gin.Context) {
	if r.Journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := r.Journal.ListCycles(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] list cycles failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": rows})
}

func (r *Router) handleEvents(c *gin.Context) {
	if r.Journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal unavailable"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := r.Journal.ListEvents(c.Request.Context(), c.Query("trace_id"), limit)
	if err != nil {
		logger.Errorf("[api] list events failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

func (r *Router) handleLogs(c *gin.Context) {
	if len(r.logNames) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置日志文件"})
		return
	}
	name := strings.TrimSpace(c.DefaultQuery("name", r.logNames[0]))
	path := strings.TrimSpace(r.logPaths[name])
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown log " + name, "available": r.logNames})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if limit <= 0 {
		limit = 200
	}
	lines, err := readLastLines(path, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "name": name})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":      name,
		"lines":     lines,
		"available": r.logNames,
	})
}

func readLastLines(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLogLineSize)
	lines := make([]string, 0, limit)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > limit {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
