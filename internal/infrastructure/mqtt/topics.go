package mqtt

import "fmt"

// TopicPrefixSolar is the base for all collector topics.
const TopicPrefixSolar = "graylogic/solar"

// Topics provides builders for the collector's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Health("site-001") // graylogic/solar/site-001/health
type Topics struct{}

// Status returns the retained online/offline topic, also used for the Last Will.
//
// Example: graylogic/solar/site-001/status
func (Topics) Status(siteID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixSolar, siteID)
}

// Health returns the retained health report topic.
//
// Example: graylogic/solar/site-001/health
func (Topics) Health(siteID string) string {
	return fmt.Sprintf("%s/%s/health", TopicPrefixSolar, siteID)
}
