// Package metrics samples CPU, memory, and network usage for a running
// provider subprocess, identified by its PID, over a short window.
package metrics

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeroshot/zeroshot/internal/log"
)

// clockTicksPerSecond is Linux's USER_HZ, which the kernel exposes via
// sysconf(_SC_CLK_TCK) rather than anywhere in /proc. 100 is the value on
// every architecture Go supports except alpha/ia64/sparc64, none of which
// this orchestrator targets.
const clockTicksPerSecond = 100

// Sample is one reading of a process's resource usage, taken across a
// window passed to Probe.Sample.
type Sample struct {
	PID          int       `json:"pid"`
	CPUPercent   float64   `json:"cpu_percent"`
	RSSBytes     int64     `json:"rss_bytes"`
	NetBytesSent uint64    `json:"net_bytes_sent"`
	NetBytesRecv uint64    `json:"net_bytes_recv"`
	SampledAt    time.Time `json:"sampled_at"`
}

// Probe samples /proc for a single PID's CPU%, RSS, and network byte
// counters over a short window. The zero value samples the real
// filesystem; ProcRoot is overridden in tests to point at a fake
// hierarchy.
type Probe struct {
	ProcRoot string
}

// NewProbe constructs a Probe rooted at the real /proc filesystem.
func NewProbe() *Probe {
	return &Probe{ProcRoot: "/proc"}
}

func (p *Probe) root() string {
	if p.ProcRoot != "" {
		return p.ProcRoot
	}
	return "/proc"
}

// Sample takes a reading of pid's /proc/[pid]/stat, /proc/[pid]/status, and
// /proc/[pid]/net/dev, waits for window to elapse (or ctx to be canceled),
// then takes a second reading and returns the CPU%/RSS/net-byte deltas
// across that window.
//
// If pid has already exited by the second reading, Sample returns the
// first reading's RSS/net counters with a zero CPU delta instead of an
// error: a process tearing down mid-window is expected, not exceptional.
func (p *Probe) Sample(ctx context.Context, pid int, window time.Duration) (Sample, error) {
	start, err := p.read(pid)
	if err != nil {
		return Sample{}, fmt.Errorf("metrics: sample pid %d: %w", pid, err)
	}

	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Sample{}, ctx.Err()
	case <-timer.C:
	}

	end, err := p.read(pid)
	if err != nil {
		log.Debug(log.CatMetrics, "process exited mid-sample, reporting first reading", "pid", pid, "err", err)
		return Sample{
			PID:          pid,
			RSSBytes:     start.rssBytes,
			NetBytesSent: start.netSent,
			NetBytesRecv: start.netRecv,
			SampledAt:    time.Now(),
		}, nil
	}

	var cpuPercent float64
	if window > 0 {
		elapsedTicks := end.utime + end.stime - start.utime - start.stime
		cpuSeconds := float64(elapsedTicks) / clockTicksPerSecond
		cpuPercent = cpuSeconds / window.Seconds() * 100
	}

	return Sample{
		PID:          pid,
		CPUPercent:   cpuPercent,
		RSSBytes:     end.rssBytes,
		NetBytesSent: end.netSent,
		NetBytesRecv: end.netRecv,
		SampledAt:    time.Now(),
	}, nil
}

// reading is one instantaneous snapshot of the counters Sample diffs
// across its window.
type reading struct {
	utime, stime     uint64
	rssBytes         int64
	netSent, netRecv uint64
}

func (p *Probe) read(pid int) (reading, error) {
	utime, stime, err := p.readStat(pid)
	if err != nil {
		return reading{}, err
	}
	rss, err := p.readRSS(pid)
	if err != nil {
		return reading{}, err
	}
	sent, recv, err := p.readNet(pid)
	if err != nil {
		return reading{}, err
	}
	return reading{utime: utime, stime: stime, rssBytes: rss, netSent: sent, netRecv: recv}, nil
}

// readStat parses /proc/[pid]/stat fields 14 (utime) and 15 (stime), both
// in clock ticks. The comm field (field 2) is parenthesized and may itself
// contain spaces or parens, so field splitting resumes after the last ')'.
func (p *Probe) readStat(pid int) (utime, stime uint64, err error) {
	data, err := os.ReadFile(filepath.Join(p.root(), strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, 0, err
	}

	line := string(data)
	closeParen := strings.LastIndexByte(line, ')')
	if closeParen < 0 || closeParen+2 >= len(line) {
		return 0, 0, fmt.Errorf("malformed stat")
	}

	// fields[0] is state (field 3 overall); utime (field 14) is fields[11],
	// stime (field 15) is fields[12].
	fields := strings.Fields(line[closeParen+2:])
	if len(fields) < 13 {
		return 0, 0, fmt.Errorf("stat has %d fields after comm, want >= 13", len(fields))
	}

	utime, err = strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse utime: %w", err)
	}
	stime, err = strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse stime: %w", err)
	}
	return utime, stime, nil
}

// readRSS parses the VmRSS line of /proc/[pid]/status, reported in
// kilobytes, and converts it to bytes. A process with no VmRSS line (e.g.
// a zombie) reports zero rather than erroring.
func (p *Probe) readRSS(pid int) (int64, error) {
	f, err := os.Open(filepath.Join(p.root(), strconv.Itoa(pid), "status"))
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed VmRSS line")
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse VmRSS: %w", err)
		}
		return kb * 1024, nil
	}
	return 0, scanner.Err()
}

// readNet sums the receive/transmit byte counters of /proc/[pid]/net/dev
// across every interface but loopback. For a subprocess without its own
// network namespace this is the host's interface totals, which is the
// best a PID-scoped probe can report without CAP_NET_ADMIN.
func (p *Probe) readNet(pid int) (sent, recv uint64, err error) {
	f, err := os.Open(filepath.Join(p.root(), strconv.Itoa(pid), "net", "dev"))
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum <= 2 {
			continue // two header lines
		}
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == "lo" {
			continue
		}
		fields := strings.Fields(parts[1])
		if len(fields) < 9 {
			continue
		}
		rx, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		tx, err := strconv.ParseUint(fields[8], 10, 64)
		if err != nil {
			continue
		}
		recv += rx
		sent += tx
	}
	return sent, recv, scanner.Err()
}
