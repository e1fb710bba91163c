/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package observability

import (
	"encoding/json"
	"net/http"

	"github.com/shirou/gopsutil/disk"
)

// healthResponse is the body /healthz writes, reporting whether the
// configured data directory's filesystem still has headroom.
type healthResponse struct {
	Status       string  `json:"status"`
	DiskTotal    uint64  `json:"disk_total_bytes"`
	DiskFree     uint64  `json:"disk_free_bytes"`
	DiskUsedPct  float64 `json:"disk_used_percent"`
	DataDirError string  `json:"data_dir_error,omitempty"`
}

// diskFullThresholdPercent marks the gateway unhealthy once the data
// volume's usage reaches this percentage. The storage engine itself
// applies no free-space check before writing.
const diskFullThresholdPercent = 95.0

// Healthz builds the /healthz handler, checking dataDir's filesystem
// usage via shirou/gopsutil's disk.Usage the way an operator's liveness
// probe expects: 200 when healthy, 503 when the volume is nearly full
// or unreadable.
func Healthz(dataDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}

		usage, err := disk.Usage(dataDir)
		if err != nil {
			resp.Status = "error"
			resp.DataDirError = err.Error()
			writeHealth(w, http.StatusServiceUnavailable, resp)
			return
		}

		resp.DiskTotal = usage.Total
		resp.DiskFree = usage.Free
		resp.DiskUsedPct = usage.UsedPercent

		status := http.StatusOK
		if usage.UsedPercent >= diskFullThresholdPercent {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	}
}

func writeHealth(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
