package service

import (
	"sort"

	"github.com/openkra/etims-relay/internal/domain"
)

// Endpoint describes one named middleware operation the relay can perform.
// Payload assembly stays with the caller; the registry only knows where an
// operation lives on the middleware's API surface.
type Endpoint struct {
	Name   string
	Path   string
	Method domain.Method
}

var endpoints = map[string]Endpoint{
	"DeviceVerificationReq": {Name: "DeviceVerificationReq", Path: "/selectInitOsdcInfo", Method: domain.MethodPost},
	"CodeSearchReq":         {Name: "CodeSearchReq", Path: "/selectCodeList", Method: domain.MethodPost},
	"CustSearchReq":         {Name: "CustSearchReq", Path: "/selectCustomer", Method: domain.MethodPost},
	"NoticeSearchReq":       {Name: "NoticeSearchReq", Path: "/selectNoticeList", Method: domain.MethodPost},
	"ItemClsSearchReq":      {Name: "ItemClsSearchReq", Path: "/selectItemClsList", Method: domain.MethodPost},
	"ItemSaveReq":           {Name: "ItemSaveReq", Path: "/saveItem", Method: domain.MethodPost},
	"ItemSearchReq":         {Name: "ItemSearchReq", Path: "/selectItemList", Method: domain.MethodPost},
	"BhfSearchReq":          {Name: "BhfSearchReq", Path: "/selectBhfList", Method: domain.MethodPost},
	"BhfCustSaveReq":        {Name: "BhfCustSaveReq", Path: "/saveBhfCustomer", Method: domain.MethodPost},
	"BhfUserSaveReq":        {Name: "BhfUserSaveReq", Path: "/saveBhfUser", Method: domain.MethodPost},
	"BhfInsuranceSaveReq":   {Name: "BhfInsuranceSaveReq", Path: "/saveBhfInsurance", Method: domain.MethodPost},
	"ImportItemSearchReq":   {Name: "ImportItemSearchReq", Path: "/selectImportItemList", Method: domain.MethodPost},
	"ImportItemUpdateReq":   {Name: "ImportItemUpdateReq", Path: "/updateImportItem", Method: domain.MethodPost},
	"TrnsSalesSaveWrReq":    {Name: "TrnsSalesSaveWrReq", Path: "/saveTrnsSalesOsdc", Method: domain.MethodPost},
	"TrnsPurchaseSalesReq":  {Name: "TrnsPurchaseSalesReq", Path: "/selectTrnsPurchaseSalesList", Method: domain.MethodPost},
	"TrnsPurchaseSaveReq":   {Name: "TrnsPurchaseSaveReq", Path: "/insertTrnsPurchase", Method: domain.MethodPost},
	"StockMoveReq":          {Name: "StockMoveReq", Path: "/selectStockMoveList", Method: domain.MethodPost},
	"StockIOSaveReq":        {Name: "StockIOSaveReq", Path: "/insertStockIO", Method: domain.MethodPost},
	"StockMasterSaveReq":    {Name: "StockMasterSaveReq", Path: "/saveStockMaster", Method: domain.MethodPost},
}

// LookupEndpoint resolves a named middleware operation.
func LookupEndpoint(name string) (Endpoint, bool) {
	ep, ok := endpoints[name]
	return ep, ok
}

// EndpointNames lists the registered operation names in stable order.
func EndpointNames() []string {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
