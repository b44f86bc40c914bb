package agent

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/mscrnt/mcadecode/pkg/db"
	"github.com/mscrnt/mcadecode/pkg/hostsig"
	"github.com/mscrnt/mcadecode/pkg/mca"
	"github.com/mscrnt/mcadecode/pkg/mca/family"
	"github.com/mscrnt/mcadecode/pkg/mcgcap"
)

// SysInfo contains system information for the host the agent is running on.
type SysInfo struct {
	Timestamp time.Time     `json:"timestamp"`
	Host      HostInfo      `json:"host"`
	CPU       CPUInfo       `json:"cpu"`
	Memory    MemoryInfo    `json:"memory"`
	Disk      []DiskInfo    `json:"disk"`
	Network   []NetworkInfo `json:"network"`
}

// HostInfo contains host information.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	Uptime          uint64 `json:"uptime"`
	BootTime        uint64 `json:"boot_time"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
	Architecture    string `json:"architecture"`
}

// CPUInfo contains CPU information.
type CPUInfo struct {
	PhysicalCores int       `json:"physical_cores"`
	LogicalCores  int       `json:"logical_cores"`
	ModelName     string    `json:"model_name"`
	Usage         []float64 `json:"usage_percent"`
	Frequency     []float64 `json:"frequency_mhz"`
}

// MemoryInfo contains memory information.
type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
	Free        uint64  `json:"free"`
}

// DiskInfo contains disk information.
type DiskInfo struct {
	Path        string  `json:"path"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

// NetworkInfo contains network interface information.
type NetworkInfo struct {
	Name        string `json:"name"`
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
}

// hostinfoHandler returns system information for the host running the
// agent — the operator context needed to interpret events reported over
// /decode from that host.
func hostinfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	info := SysInfo{
		Timestamp: time.Now(),
	}

	if hostInfo, err := host.Info(); err == nil {
		info.Host = HostInfo{
			Hostname:        hostInfo.Hostname,
			Uptime:          hostInfo.Uptime,
			BootTime:        hostInfo.BootTime,
			OS:              hostInfo.OS,
			Platform:        hostInfo.Platform,
			PlatformVersion: hostInfo.PlatformVersion,
			KernelVersion:   hostInfo.KernelVersion,
			Architecture:    runtime.GOARCH,
		}
	}

	if cores, err := cpu.Counts(false); err == nil {
		info.CPU.PhysicalCores = cores
	}
	if cores, err := cpu.Counts(true); err == nil {
		info.CPU.LogicalCores = cores
	}
	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		info.CPU.ModelName = cpuInfo[0].ModelName
		for _, ci := range cpuInfo {
			info.CPU.Frequency = append(info.CPU.Frequency, ci.Mhz)
		}
	}
	if usage, err := cpu.Percent(time.Second, true); err == nil {
		info.CPU.Usage = usage
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.Memory = MemoryInfo{
			Total:       vmStat.Total,
			Available:   vmStat.Available,
			Used:        vmStat.Used,
			UsedPercent: vmStat.UsedPercent,
			Free:        vmStat.Free,
		}
	}

	if partitions, err := disk.Partitions(false); err == nil {
		for _, partition := range partitions {
			if usage, err := disk.Usage(partition.Mountpoint); err == nil {
				info.Disk = append(info.Disk, DiskInfo{
					Path:        partition.Mountpoint,
					Fstype:      partition.Fstype,
					Total:       usage.Total,
					Free:        usage.Free,
					Used:        usage.Used,
					UsedPercent: usage.UsedPercent,
				})
			}
		}
	}

	if interfaces, err := net.IOCounters(true); err == nil {
		for _, iface := range interfaces {
			if iface.Name == "lo" || strings.HasPrefix(iface.Name, "docker") {
				continue
			}
			info.Network = append(info.Network, NetworkInfo{
				Name:        iface.Name,
				BytesSent:   iface.BytesSent,
				BytesRecv:   iface.BytesRecv,
				PacketsSent: iface.PacketsSent,
				PacketsRecv: iface.PacketsRecv,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// hostsigHandler returns the local Processor Signature as best-effort
// detected from the CPU info the host reports (pkg/hostsig), letting a remote caller decide which family handler
// applies to events reported by this host.
func hostsigHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sig := hostsig.Detect()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sig); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// DecodeRequest is the body of a POST /decode request: one raw MCA record.
type DecodeRequest struct {
	MCGCap             uint64 `json:"mcg_cap"`
	Bank               int    `json:"bank"`
	Status             uint64 `json:"status"`
	Addr               uint64 `json:"addr"`
	Misc               uint64 `json:"misc"`
	ProcessorSignature string `json:"processor_signature"`
	CPU                int    `json:"cpu"`
	RecordID           string `json:"record_id"`
	Timestamp          string `json:"timestamp"`
	ErrorControlBit1   *bool  `json:"error_control_bit1,omitempty"`
}

// decodeHandler decodes one MCA record submitted as JSON and returns its
// persisted-shape representation, without writing it to any database.
func decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	opts := mca.DefaultOptions()
	if req.ErrorControlBit1 != nil {
		opts.ErrorControlBit1 = *req.ErrorControlBit1
	}

	cap := mcgcap.Decode(req.MCGCap)
	identity := mca.Identity{ID: req.RecordID, Timestamp: req.Timestamp, CPU: req.CPU}
	decoded := mca.Decode(cap, req.Bank, req.Status, req.Addr, req.Misc, identity, opts)

	if req.ProcessorSignature != "" {
		family.Dispatch(req.ProcessorSignature, &decoded, opts)
	}

	event, _ := db.NewEvent(0, req.ProcessorSignature, decoded)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(event); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// LogsResponse contains log data.
type LogsResponse struct {
	Lines     []string  `json:"lines"`
	File      string    `json:"file"`
	Timestamp time.Time `json:"timestamp"`
}

// logsHandler returns log file contents.
func logsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logFile := r.URL.Query().Get("file")
	if logFile == "" {
		logFile = "mcadecode.log"
	}

	if strings.Contains(logFile, "..") || strings.Contains(logFile, "/") || strings.Contains(logFile, "\\") {
		http.Error(w, "Invalid log file name", http.StatusBadRequest)
		return
	}

	tailStr := r.URL.Query().Get("tail")
	tail := 100
	if tailStr != "" {
		if n, err := strconv.Atoi(tailStr); err == nil && n > 0 {
			tail = n
		}
	}

	file, err := os.Open(logFile) // #nosec G304 -- logFile is sanitized against traversal above
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Log file not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to open log file", http.StatusInternalServerError)
		return
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > tail {
			lines = lines[1:]
		}
	}

	if err := scanner.Err(); err != nil {
		http.Error(w, "Failed to read log file", http.StatusInternalServerError)
		return
	}

	response := LogsResponse{
		Lines:     lines,
		File:      logFile,
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
