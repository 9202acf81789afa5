// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// scratchNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	scratchNamespace = "scratchfile"

	decodeSubsystem  = "decode"
	projectSubsystem = "project"

	// 以下为当前使用的通用标签名。
	tagLabelName     = "tag"
	codeLabelName    = "code"
	versionLabelName = "version"
	statusLabelName  = "status"

	SuccessLabel = "success"
	FailLabel    = "fail"
)

var (
	// buckets 为耗时直方图的桶划分，单位为毫秒。
	// [1 2 4 8 16 32 64 128 256 512 1024 2048 4096 8192 16384 32768]
	buckets = prometheus.ExponentialBuckets(1, 2, 16)

	// sizeBuckets 为数据大小的桶划分，单位为字节。
	sizeBuckets = []float64{1024, 16384, 131072, 1048576, 4194304, 16777216, 67108864, 268435456}

	RecordsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: scratchNamespace,
			Subsystem: decodeSubsystem,
			Name:      "records_total",
			Help:      "number of object records decoded, by class tag",
		}, []string{tagLabelName})

	ReferencesDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: scratchNamespace,
			Subsystem: decodeSubsystem,
			Name:      "references_total",
			Help:      "number of back-reference records decoded",
		})

	DecodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: scratchNamespace,
			Subsystem: decodeSubsystem,
			Name:      "errors_total",
			Help:      "number of record decode failures, by error code",
		}, []string{codeLabelName})

	ProjectLoadLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: scratchNamespace,
			Subsystem: projectSubsystem,
			Name:      "load_latency",
			Help:      "latency of loading one project container, in milliseconds",
			Buckets:   buckets,
		}, []string{versionLabelName, statusLabelName})

	ProjectBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: scratchNamespace,
			Subsystem: projectSubsystem,
			Name:      "size_bytes",
			Help:      "size of decoded project containers after decompression",
			Buckets:   sizeBuckets,
		})

	registerOnce sync.Once

	metricRegisterer prometheus.Registerer
)

var (
	tagLabels  [256]string
	labelsOnce sync.Once
)

// TagLabel 返回类标签对应的指标标签值，避免每次解码都做字符串转换。
func TagLabel(tag uint8) string {
	labelsOnce.Do(func() {
		for i := range tagLabels {
			tagLabels[i] = strconv.Itoa(i)
		}
	})
	return tagLabels[tag]
}

// CodeLabel 返回错误码对应的指标标签值。
func CodeLabel(code int32) string {
	return strconv.FormatInt(int64(code), 10)
}

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，多次调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(RecordsDecoded)
		r.MustRegister(ReferencesDecoded)
		r.MustRegister(DecodeErrors)
		r.MustRegister(ProjectLoadLatency)
		r.MustRegister(ProjectBytes)
		registerLoggingMetrics(r)
		metricRegisterer = r
	})
}
