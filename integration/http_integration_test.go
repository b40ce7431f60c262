package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// getBaseURL returns the base URL for API calls.
// Uses CAREMON_BASE_URL env var if set (for container tests),
// otherwise defaults to localhost:8080.
func getBaseURL() string {
	if url := os.Getenv("CAREMON_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// httpClient creates an HTTP client with sensible defaults.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// doRequest performs an HTTP request and returns the response.
func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	url := getBaseURL() + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient().Do(req)
}

// parseResponse parses JSON response into target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// cleanupTestData removes test geofences by making DELETE requests.
func cleanupTestData(geofenceIDs []string) {
	for _, id := range geofenceIDs {
		_, _ = doRequest("DELETE", "/v1/geofences/"+id, nil)
	}
}

var _ = Describe("HTTP Integration Tests", Ordered, func() {
	var (
		geofenceID         string
		createdGeofenceIDs []string
	)

	BeforeAll(func() {
		// Check if the server is reachable
		resp, err := doRequest("GET", "/healthz", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	AfterAll(func() {
		cleanupTestData(createdGeofenceIDs)
	})

	Describe("Health Check", func() {
		It("should return healthy status", func() {
			resp, err := doRequest("GET", "/healthz", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("Geofences API", func() {
		It("should create a circular safe zone", func() {
			payload := map[string]interface{}{
				"ward_id": "http-test-ward",
				"name":    "HTTP Test Safe Zone",
				"type":    "safe_zone",
				"shape":   "circle",
				"circle": map[string]interface{}{
					"center_latitude":  52.52,
					"center_longitude": 13.405,
					"radius_meters":    150.0,
				},
			}

			resp, err := doRequest("POST", "/v1/geofences", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			geofenceID = data["id"].(string)
			createdGeofenceIDs = append(createdGeofenceIDs, geofenceID)

			Expect(data["name"]).To(Equal("HTTP Test Safe Zone"))
			Expect(data["enabled"]).To(Equal(true))
		})

		It("should get the created geofence", func() {
			resp, err := doRequest("GET", "/v1/geofences/"+geofenceID, nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["ward_id"]).To(Equal("http-test-ward"))
			Expect(data["type"]).To(Equal("safe_zone"))
		})

		It("should list geofences for the ward", func() {
			resp, err := doRequest("GET", "/v1/wards/http-test-ward/geofences", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].([]interface{})
			Expect(ok).To(BeTrue())
			Expect(len(data)).To(BeNumerically(">=", 1))
		})

		It("should update the geofence", func() {
			payload := map[string]interface{}{
				"ward_id": "http-test-ward",
				"name":    "HTTP Test Safe Zone Updated",
				"type":    "safe_zone",
				"shape":   "circle",
				"circle": map[string]interface{}{
					"center_latitude":  52.52,
					"center_longitude": 13.405,
					"radius_meters":    200.0,
				},
			}

			resp, err := doRequest("PUT", "/v1/geofences/"+geofenceID, payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["name"]).To(Equal("HTTP Test Safe Zone Updated"))
		})
	})

	Describe("Telemetry Ingestion and Alert Creation", func() {
		var (
			wardID  string
			alertID string
		)

		It("should ingest a telemetry batch", func() {
			payload := map[string]interface{}{
				"device_id": "http-test-device",
				"metrics": []map[string]interface{}{
					{
						"type":        "spo2",
						"value":       80.0,
						"unit":        "%",
						"observed_at": time.Now().UTC().Format(time.RFC3339),
					},
					{
						"type":        "heart_rate",
						"value":       72.0,
						"unit":        "bpm",
						"observed_at": time.Now().UTC().Format(time.RFC3339),
					},
				},
				"location": map[string]interface{}{
					"latitude":    52.5201,
					"longitude":   13.4051,
					"source":      "gps",
					"observed_at": time.Now().UTC().Format(time.RFC3339),
				},
			}

			resp, err := doRequest("POST", "/v1/telemetry", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(data["batch_id"]).NotTo(BeEmpty())
			Expect(data["metrics_count"]).To(BeNumerically("==", 2))

			// The ward depends on the server's device registry; unresolved
			// devices are filed under "unknown" and skip evaluation.
			wardID = data["ward_id"].(string)
			Expect(wardID).NotTo(BeEmpty())
		})

		// Alert and location checks need an actual ward: unresolved
		// batches are stored but never evaluated or located. Register
		// http-test-device in the server's registry config to run them.
		requireResolvedWard := func() {
			if wardID == "unknown" {
				Skip("http-test-device is not registered with the server")
			}
		}

		It("should expose the latest readings for the ward", func() {
			Eventually(func() int {
				resp, err := doRequest("GET", "/v1/wards/"+wardID+"/telemetry/latest", nil)
				if err != nil {
					return 0
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					return 0
				}

				var result map[string]interface{}
				if parseResponse(resp, &result) != nil {
					return 0
				}

				data, ok := result["data"].([]interface{})
				if !ok {
					return 0
				}
				return len(data)
			}, 5*time.Second, 200*time.Millisecond).Should(BeNumerically(">=", 2))
		})

		It("should expose the latest location for the ward", func() {
			requireResolvedWard()

			resp, err := doRequest("GET", "/v1/wards/"+wardID+"/location", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["latitude"]).To(BeNumerically("~", 52.5201, 0.0001))
		})

		It("should raise a critical alert for the low oxygen reading", func() {
			requireResolvedWard()

			var data map[string]interface{}
			Eventually(func() string {
				resp, err := doRequest("GET", "/v1/alerts?ward_id="+wardID+"&severity=critical", nil)
				if err != nil {
					return ""
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					return ""
				}

				var result map[string]interface{}
				if parseResponse(resp, &result) != nil {
					return ""
				}

				alerts, ok := result["data"].([]interface{})
				if !ok || len(alerts) == 0 {
					return ""
				}

				for _, raw := range alerts {
					alert := raw.(map[string]interface{})
					if alert["alert_type"] == "low_oxygen_critical" {
						data = alert
						return "low_oxygen_critical"
					}
				}
				return ""
			}, 5*time.Second, 200*time.Millisecond).Should(Equal("low_oxygen_critical"))

			alertID = data["id"].(string)
			Expect(data["status"]).To(Equal("active"))
			Expect(data["severity"]).To(Equal("critical"))
		})

		It("should acknowledge the alert", func() {
			requireResolvedWard()

			resp, err := doRequest("POST", "/v1/alerts/"+alertID+"/acknowledge", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["status"]).To(Equal("acknowledged"))
		})

		It("should resolve the alert", func() {
			requireResolvedWard()

			resp, err := doRequest("POST", "/v1/alerts/"+alertID+"/resolve", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["status"]).To(Equal("resolved"))
			Expect(data["resolved_at"]).NotTo(BeNil())
		})

		It("should reject transitions out of a resolved alert", func() {
			requireResolvedWard()

			resp, err := doRequest("POST", "/v1/alerts/"+alertID+"/acknowledge", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Describe("Internal Alert API", func() {
		It("should reject requests without the internal service header", func() {
			payload := map[string]interface{}{
				"ward_id":    "http-test-ward",
				"alert_type": "manual_check",
				"title":      "Manual check requested",
				"severity":   "medium",
			}

			resp, err := doRequest("POST", "/internal/alerts/immediate", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})
})
