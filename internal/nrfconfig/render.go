// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

// Package nrfconfig renders the NRF workload configuration file. The
// template is fixed: only the database name and URL are substituted, and
// rendering the same inputs always yields the same bytes.
package nrfconfig

import (
	"bytes"
	"text/template"

	"github.com/juju/errors"
)

// templateArgs holds the two values substituted into the config template.
type templateArgs struct {
	// DatabaseName is the MongoDB database the NRF stores NF profiles in.
	DatabaseName string

	// DatabaseURL is the address of the MongoDB instance.
	DatabaseURL string
}

var configTemplate = template.Must(template.New("nrfcfg").Parse(`configuration:
  DefaultPlmnId:
    mcc: "208"
    mnc: "93"
  MongoDBName: {{.DatabaseName}}
  MongoDBUrl: {{.DatabaseURL}}
  mongoDBStreamEnable: true
  mongodb:
    name: {{.DatabaseName}}
    url: {{.DatabaseURL}}
  nfKeepAliveTime: 60
  nfProfileExpiryEnable: true
  sbi:
    bindingIPv4: 0.0.0.0
    port: 29510
    registerIPv4: nrf
    scheme: http
  serviceNameList:
  - nnrf-nfm
  - nnrf-disc
info:
  description: NRF initial local configuration
  version: 1.0.0
logger:
  AMF:
    ReportCaller: false
    debugLevel: info
  AUSF:
    ReportCaller: false
    debugLevel: info
  Aper:
    ReportCaller: false
    debugLevel: info
  CommonConsumerTest:
    ReportCaller: false
    debugLevel: info
  FSM:
    ReportCaller: false
    debugLevel: info
  MongoDBLibrary:
    ReportCaller: false
    debugLevel: info
  N3IWF:
    ReportCaller: false
    debugLevel: info
  NAS:
    ReportCaller: false
    debugLevel: info
  NGAP:
    ReportCaller: false
    debugLevel: info
  NRF:
    ReportCaller: false
    debugLevel: info
  NamfComm:
    ReportCaller: false
    debugLevel: info
  NamfEventExposure:
    ReportCaller: false
    debugLevel: info
  NsmfPDUSession:
    ReportCaller: false
    debugLevel: info
  NudrDataRepository:
    ReportCaller: false
    debugLevel: info
  OpenApi:
    ReportCaller: false
    debugLevel: info
  PCF:
    ReportCaller: false
    debugLevel: info
  PFCP:
    ReportCaller: false
    debugLevel: info
  PathUtil:
    ReportCaller: false
    debugLevel: info
  SMF:
    ReportCaller: false
    debugLevel: info
  UDM:
    ReportCaller: false
    debugLevel: info
  UDR:
    ReportCaller: false
    debugLevel: info
  WEBUI:
    ReportCaller: false
    debugLevel: info`))

// Render produces the NRF configuration for the given database.
func Render(databaseName, databaseURL string) (string, error) {
	var rendered bytes.Buffer
	err := configTemplate.Execute(&rendered, templateArgs{
		DatabaseName: databaseName,
		DatabaseURL:  databaseURL,
	})
	if err != nil {
		return "", errors.Annotate(err, "rendering NRF config")
	}
	return rendered.String(), nil
}
