package middleware

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// ServerInfo prints the startup banner and logs the same facts.
func ServerInfo(port, dialect string, redisEnabled bool, logger *zap.Logger) {
	hostname, _ := os.Hostname()
	goVersion := runtime.Version()
	numCPU := runtime.NumCPU()
	startTime := time.Now().Format("2006-01-02 15:04:05")

	cacheLine := "disabled"
	if redisEnabled {
		cacheLine = "Redis"
	}

	fmt.Println("")
	fmt.Println("🚀 " + boldColor + "Coal Stock Service API" + resetColor)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("📅 Started at: " + startTime)
	fmt.Println("🌐 Server URL: " + cyanColor + "http://localhost:" + port + resetColor)
	fmt.Println("💻 Hostname: " + hostname)
	fmt.Println("🔧 Go Version: " + goVersion)
	fmt.Println("⚡ CPU Cores: " + fmt.Sprintf("%d", numCPU))
	fmt.Println("")
	fmt.Println("📊 " + boldColor + "Available Endpoints:" + resetColor)
	fmt.Println("   POST " + greenColor + "/api/v1/production" + resetColor + "                      - Record truck intake")
	fmt.Println("   POST " + greenColor + "/api/v1/barging" + resetColor + "                         - Record barge loading")
	fmt.Println("   GET  " + greenColor + "/api/v1/stock" + resetColor + "                           - Stock balances")
	fmt.Println("   POST " + greenColor + "/api/v1/stock/adjustments" + resetColor + "               - Manual adjustment")
	fmt.Println("   POST " + greenColor + "/api/v1/stock/adjustments/:id/approve" + resetColor + "   - Approve adjustment")
	fmt.Println("")
	fmt.Println("🔍 " + boldColor + "Monitoring:" + resetColor)
	fmt.Println("   📈 Health Check: " + cyanColor + "http://localhost:" + port + "/health" + resetColor)
	fmt.Println("   📊 Metrics: " + cyanColor + "http://localhost:" + port + "/api/v1/monitoring/metrics" + resetColor)
	fmt.Println("")
	fmt.Println("⚙️  " + boldColor + "Environment:" + resetColor)
	fmt.Println("   🗄️  Database: " + dialect)
	fmt.Println("   🗃️  Cache: " + cacheLine)
	fmt.Println("   📝 Logging: Structured (Zap)")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("✨ " + boldColor + "Server is ready to handle requests!" + resetColor)
	fmt.Println("")

	logger.Info("Server started successfully",
		zap.String("port", port),
		zap.String("hostname", hostname),
		zap.String("go_version", goVersion),
		zap.Int("cpu_cores", numCPU),
		zap.String("database", dialect),
		zap.Bool("redis_enabled", redisEnabled),
		zap.String("start_time", startTime),
	)
}
