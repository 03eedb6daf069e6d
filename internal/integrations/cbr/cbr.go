package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SanjarHikmatov/unired-task/internal/exchange"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CBRClient loads daily exchange rates from the Central Bank of Russia
type CBRClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(url string, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the rates on a date
func (c *CBRClient) buildSOAPRequest(on time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDate xmlns="http://web.cbr.ru/">
					<On_date>%s</On_date>
				</GetCursOnDate>
			</soap12:Body>
		</soap12:Envelope>`, on.Format("2006-01-02"))
}

// sendRequest sends SOAP request to CBR
func (c *CBRClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("CBR XML response: %s", string(body))
	return body, nil
}

// parseXMLResponse extracts the rouble rate per unit of each listed currency
func (c *CBRClient) parseXMLResponse(rawBody []byte) (exchange.Rates, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	rows := doc.FindElements("//diffgram/ValuteData/ValuteCursOnDate")
	if len(rows) == 0 {
		return nil, fmt.Errorf("no currency rates found in XML")
	}

	rates := exchange.Rates{}
	for _, row := range rows {
		code, nominal, curs := row.FindElement("./Vcode"), row.FindElement("./Vnom"), row.FindElement("./Vcurs")
		if code == nil || nominal == nil || curs == nil {
			continue
		}
		numCode, err := strconv.Atoi(strings.TrimSpace(code.Text()))
		if err != nil {
			continue
		}
		nom, err := decimal.NewFromString(strings.TrimSpace(nominal.Text()))
		if err != nil || !nom.IsPositive() {
			continue
		}
		value, err := decimal.NewFromString(strings.TrimSpace(curs.Text()))
		if err != nil {
			continue
		}
		rates[numCode] = value.DivRound(nom, 4)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no parsable currency rates in XML")
	}
	return rates, nil
}

// GetRates retrieves the rates on a date for the requested currencies.
// The rouble always has a rate of one.
func (c *CBRClient) GetRates(ctx context.Context, on time.Time, currencies []int) (exchange.Rates, error) {
	body, err := c.sendRequest(ctx, c.buildSOAPRequest(on))
	if err != nil {
		return nil, err
	}

	all, err := c.parseXMLResponse(body)
	if err != nil {
		return nil, err
	}
	all[exchange.CurrencyRUB] = decimal.NewFromInt(1)

	rates := exchange.Rates{}
	for _, code := range currencies {
		rate, ok := all[code]
		if !ok {
			return nil, fmt.Errorf("CBR has no rate for currency %d", code)
		}
		rates[code] = rate
	}

	c.log.Infof("Retrieved CBR rates for %s: %s", on.Format("2006-01-02"), rates)
	return rates, nil
}
