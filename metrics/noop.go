// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// disabled is the service in place until prometheus is initialized.
// It is its own meter of every kind and drops whatever it records.
type disabled struct{}

var _ interface {
	Metrics
	CountMeter
	CountVecMeter
	GaugeMeter
	HistogramVecMeter
} = disabled{}

func (d disabled) GetOrCreateCountMeter(string) CountMeter { return d }
func (d disabled) GetOrCreateCountVecMeter(string, []string) CountVecMeter { return d }
func (d disabled) GetOrCreateGaugeMeter(string) GaugeMeter { return d }
func (d disabled) GetOrCreateHistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return d
}

// GetOrCreateHandler returns nil, callers skip mounting the metrics endpoint.
func (disabled) GetOrCreateHandler() http.Handler { return nil }

func (disabled) Add(int64) {}
func (disabled) Set(int64) {}
func (disabled) AddWithLabel(int64, map[string]string) {}
func (disabled) ObserveWithLabels(int64, map[string]string) {}
