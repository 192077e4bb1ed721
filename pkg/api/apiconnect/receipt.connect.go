// Package apiconnect wires the receipt service messages to Connect
// handlers and clients.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/rece/pkg/api"
)

// ReceiptServiceName is the fully-qualified name of the ReceiptService service.
const ReceiptServiceName = "rece.v1.ReceiptService"

// Procedure paths, each of the form "/service/method".
const (
	ReceiptServiceCreateReceiptProcedure = "/rece.v1.ReceiptService/CreateReceipt"
	ReceiptServiceListReceiptsProcedure  = "/rece.v1.ReceiptService/ListReceipts"
	ReceiptServiceGetReceiptProcedure    = "/rece.v1.ReceiptService/GetReceipt"
	ReceiptServiceWatchReceiptProcedure  = "/rece.v1.ReceiptService/WatchReceipt"
	ReceiptServiceDeleteReceiptProcedure = "/rece.v1.ReceiptService/DeleteReceipt"
	ReceiptServiceUpdateReceiptProcedure = "/rece.v1.ReceiptService/UpdateReceipt"
	ReceiptServiceAddItemProcedure       = "/rece.v1.ReceiptService/AddItem"
	ReceiptServiceUpdateItemProcedure    = "/rece.v1.ReceiptService/UpdateItem"
	ReceiptServiceRemoveItemProcedure    = "/rece.v1.ReceiptService/RemoveItem"
	ReceiptServiceSplitItemProcedure     = "/rece.v1.ReceiptService/SplitItem"
	ReceiptServiceAddPersonProcedure     = "/rece.v1.ReceiptService/AddPerson"
	ReceiptServiceUpdatePersonProcedure  = "/rece.v1.ReceiptService/UpdatePerson"
	ReceiptServiceSetPaidProcedure       = "/rece.v1.ReceiptService/SetPaid"
	ReceiptServiceRemovePersonProcedure  = "/rece.v1.ReceiptService/RemovePerson"
	ReceiptServiceSetShareProcedure      = "/rece.v1.ReceiptService/SetShare"
	ReceiptServiceSetChargeProcedure     = "/rece.v1.ReceiptService/SetCharge"
)

// ReceiptServiceClient is a client for the rece.v1.ReceiptService service.
type ReceiptServiceClient interface {
	CreateReceipt(context.Context, *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	ListReceipts(context.Context, *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error)
	GetReceipt(context.Context, *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error)
	WatchReceipt(context.Context, *connect.Request[api.WatchReceiptRequest]) (*connect.ServerStreamForClient[api.WatchReceiptResponse], error)
	DeleteReceipt(context.Context, *connect.Request[api.DeleteReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	UpdateReceipt(context.Context, *connect.Request[api.UpdateReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	AddItem(context.Context, *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error)
	UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error)
	RemoveItem(context.Context, *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error)
	SplitItem(context.Context, *connect.Request[api.SplitItemRequest]) (*connect.Response[api.MutationResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.MutationResponse], error)
	UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.MutationResponse], error)
	SetPaid(context.Context, *connect.Request[api.SetPaidRequest]) (*connect.Response[api.MutationResponse], error)
	RemovePerson(context.Context, *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.MutationResponse], error)
	SetShare(context.Context, *connect.Request[api.SetShareRequest]) (*connect.Response[api.MutationResponse], error)
	SetCharge(context.Context, *connect.Request[api.SetChargeRequest]) (*connect.Response[api.MutationResponse], error)
}

// NewReceiptServiceClient constructs a client for the rece.v1.ReceiptService
// service. Messages are sent as JSON.
//
// The URL supplied here should be the base URL for the Connect server
// (for example, http://api.acme.com or https://acme.com/grpc).
func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ReceiptServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &receiptServiceClient{
		createReceipt: connect.NewClient[api.CreateReceiptRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceCreateReceiptProcedure, opts...),
		listReceipts:  connect.NewClient[api.ListReceiptsRequest, api.ListReceiptsResponse](httpClient, baseURL+ReceiptServiceListReceiptsProcedure, opts...),
		getReceipt:    connect.NewClient[api.GetReceiptRequest, api.GetReceiptResponse](httpClient, baseURL+ReceiptServiceGetReceiptProcedure, opts...),
		watchReceipt:  connect.NewClient[api.WatchReceiptRequest, api.WatchReceiptResponse](httpClient, baseURL+ReceiptServiceWatchReceiptProcedure, opts...),
		deleteReceipt: connect.NewClient[api.DeleteReceiptRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceDeleteReceiptProcedure, opts...),
		updateReceipt: connect.NewClient[api.UpdateReceiptRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceUpdateReceiptProcedure, opts...),
		addItem:       connect.NewClient[api.AddItemRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceAddItemProcedure, opts...),
		updateItem:    connect.NewClient[api.UpdateItemRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceUpdateItemProcedure, opts...),
		removeItem:    connect.NewClient[api.RemoveItemRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceRemoveItemProcedure, opts...),
		splitItem:     connect.NewClient[api.SplitItemRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceSplitItemProcedure, opts...),
		addPerson:     connect.NewClient[api.AddPersonRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceAddPersonProcedure, opts...),
		updatePerson:  connect.NewClient[api.UpdatePersonRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceUpdatePersonProcedure, opts...),
		setPaid:       connect.NewClient[api.SetPaidRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceSetPaidProcedure, opts...),
		removePerson:  connect.NewClient[api.RemovePersonRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceRemovePersonProcedure, opts...),
		setShare:      connect.NewClient[api.SetShareRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceSetShareProcedure, opts...),
		setCharge:     connect.NewClient[api.SetChargeRequest, api.MutationResponse](httpClient, baseURL+ReceiptServiceSetChargeProcedure, opts...),
	}
}

type receiptServiceClient struct {
	createReceipt *connect.Client[api.CreateReceiptRequest, api.MutationResponse]
	listReceipts  *connect.Client[api.ListReceiptsRequest, api.ListReceiptsResponse]
	getReceipt    *connect.Client[api.GetReceiptRequest, api.GetReceiptResponse]
	watchReceipt  *connect.Client[api.WatchReceiptRequest, api.WatchReceiptResponse]
	deleteReceipt *connect.Client[api.DeleteReceiptRequest, api.MutationResponse]
	updateReceipt *connect.Client[api.UpdateReceiptRequest, api.MutationResponse]
	addItem       *connect.Client[api.AddItemRequest, api.MutationResponse]
	updateItem    *connect.Client[api.UpdateItemRequest, api.MutationResponse]
	removeItem    *connect.Client[api.RemoveItemRequest, api.MutationResponse]
	splitItem     *connect.Client[api.SplitItemRequest, api.MutationResponse]
	addPerson     *connect.Client[api.AddPersonRequest, api.MutationResponse]
	updatePerson  *connect.Client[api.UpdatePersonRequest, api.MutationResponse]
	setPaid       *connect.Client[api.SetPaidRequest, api.MutationResponse]
	removePerson  *connect.Client[api.RemovePersonRequest, api.MutationResponse]
	setShare      *connect.Client[api.SetShareRequest, api.MutationResponse]
	setCharge     *connect.Client[api.SetChargeRequest, api.MutationResponse]
}

func (c *receiptServiceClient) CreateReceipt(ctx context.Context, req *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.createReceipt.CallUnary(ctx, req)
}

func (c *receiptServiceClient) ListReceipts(ctx context.Context, req *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error) {
	return c.listReceipts.CallUnary(ctx, req)
}

func (c *receiptServiceClient) GetReceipt(ctx context.Context, req *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error) {
	return c.getReceipt.CallUnary(ctx, req)
}

func (c *receiptServiceClient) WatchReceipt(ctx context.Context, req *connect.Request[api.WatchReceiptRequest]) (*connect.ServerStreamForClient[api.WatchReceiptResponse], error) {
	return c.watchReceipt.CallServerStream(ctx, req)
}

func (c *receiptServiceClient) DeleteReceipt(ctx context.Context, req *connect.Request[api.DeleteReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.deleteReceipt.CallUnary(ctx, req)
}

func (c *receiptServiceClient) UpdateReceipt(ctx context.Context, req *connect.Request[api.UpdateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.updateReceipt.CallUnary(ctx, req)
}

func (c *receiptServiceClient) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *receiptServiceClient) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.updateItem.CallUnary(ctx, req)
}

func (c *receiptServiceClient) RemoveItem(ctx context.Context, req *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *receiptServiceClient) SplitItem(ctx context.Context, req *connect.Request[api.SplitItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.splitItem.CallUnary(ctx, req)
}

func (c *receiptServiceClient) AddPerson(ctx context.Context, req *connect.Request[api.AddPersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.addPerson.CallUnary(ctx, req)
}

func (c *receiptServiceClient) UpdatePerson(ctx context.Context, req *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.updatePerson.CallUnary(ctx, req)
}

func (c *receiptServiceClient) SetPaid(ctx context.Context, req *connect.Request[api.SetPaidRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.setPaid.CallUnary(ctx, req)
}

func (c *receiptServiceClient) RemovePerson(ctx context.Context, req *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.removePerson.CallUnary(ctx, req)
}

func (c *receiptServiceClient) SetShare(ctx context.Context, req *connect.Request[api.SetShareRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.setShare.CallUnary(ctx, req)
}

func (c *receiptServiceClient) SetCharge(ctx context.Context, req *connect.Request[api.SetChargeRequest]) (*connect.Response[api.MutationResponse], error) {
	return c.setCharge.CallUnary(ctx, req)
}

// ReceiptServiceHandler is implemented by the receipt service.
type ReceiptServiceHandler interface {
	CreateReceipt(context.Context, *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	ListReceipts(context.Context, *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error)
	GetReceipt(context.Context, *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error)
	WatchReceipt(context.Context, *connect.Request[api.WatchReceiptRequest], *connect.ServerStream[api.WatchReceiptResponse]) error
	DeleteReceipt(context.Context, *connect.Request[api.DeleteReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	UpdateReceipt(context.Context, *connect.Request[api.UpdateReceiptRequest]) (*connect.Response[api.MutationResponse], error)
	AddItem(context.Context, *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error)
	UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error)
	RemoveItem(context.Context, *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error)
	SplitItem(context.Context, *connect.Request[api.SplitItemRequest]) (*connect.Response[api.MutationResponse], error)
	AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.MutationResponse], error)
	UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.MutationResponse], error)
	SetPaid(context.Context, *connect.Request[api.SetPaidRequest]) (*connect.Response[api.MutationResponse], error)
	RemovePerson(context.Context, *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.MutationResponse], error)
	SetShare(context.Context, *connect.Request[api.SetShareRequest]) (*connect.Response[api.MutationResponse], error)
	SetCharge(context.Context, *connect.Request[api.SetChargeRequest]) (*connect.Response[api.MutationResponse], error)
}

// NewReceiptServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself. The JSON codec is always registered.
func NewReceiptServiceHandler(svc ReceiptServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	handlers := map[string]http.Handler{
		ReceiptServiceCreateReceiptProcedure: connect.NewUnaryHandler(ReceiptServiceCreateReceiptProcedure, svc.CreateReceipt, opts...),
		ReceiptServiceListReceiptsProcedure:  connect.NewUnaryHandler(ReceiptServiceListReceiptsProcedure, svc.ListReceipts, opts...),
		ReceiptServiceGetReceiptProcedure:    connect.NewUnaryHandler(ReceiptServiceGetReceiptProcedure, svc.GetReceipt, opts...),
		ReceiptServiceWatchReceiptProcedure:  connect.NewServerStreamHandler(ReceiptServiceWatchReceiptProcedure, svc.WatchReceipt, opts...),
		ReceiptServiceDeleteReceiptProcedure: connect.NewUnaryHandler(ReceiptServiceDeleteReceiptProcedure, svc.DeleteReceipt, opts...),
		ReceiptServiceUpdateReceiptProcedure: connect.NewUnaryHandler(ReceiptServiceUpdateReceiptProcedure, svc.UpdateReceipt, opts...),
		ReceiptServiceAddItemProcedure:       connect.NewUnaryHandler(ReceiptServiceAddItemProcedure, svc.AddItem, opts...),
		ReceiptServiceUpdateItemProcedure:    connect.NewUnaryHandler(ReceiptServiceUpdateItemProcedure, svc.UpdateItem, opts...),
		ReceiptServiceRemoveItemProcedure:    connect.NewUnaryHandler(ReceiptServiceRemoveItemProcedure, svc.RemoveItem, opts...),
		ReceiptServiceSplitItemProcedure:     connect.NewUnaryHandler(ReceiptServiceSplitItemProcedure, svc.SplitItem, opts...),
		ReceiptServiceAddPersonProcedure:     connect.NewUnaryHandler(ReceiptServiceAddPersonProcedure, svc.AddPerson, opts...),
		ReceiptServiceUpdatePersonProcedure:  connect.NewUnaryHandler(ReceiptServiceUpdatePersonProcedure, svc.UpdatePerson, opts...),
		ReceiptServiceSetPaidProcedure:       connect.NewUnaryHandler(ReceiptServiceSetPaidProcedure, svc.SetPaid, opts...),
		ReceiptServiceRemovePersonProcedure:  connect.NewUnaryHandler(ReceiptServiceRemovePersonProcedure, svc.RemovePerson, opts...),
		ReceiptServiceSetShareProcedure:      connect.NewUnaryHandler(ReceiptServiceSetShareProcedure, svc.SetShare, opts...),
		ReceiptServiceSetChargeProcedure:     connect.NewUnaryHandler(ReceiptServiceSetChargeProcedure, svc.SetCharge, opts...),
	}
	return "/rece.v1.ReceiptService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// UnimplementedReceiptServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedReceiptServiceHandler struct{}

func (UnimplementedReceiptServiceHandler) CreateReceipt(context.Context, *connect.Request[api.CreateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.CreateReceipt is not implemented"))
}

func (UnimplementedReceiptServiceHandler) ListReceipts(context.Context, *connect.Request[api.ListReceiptsRequest]) (*connect.Response[api.ListReceiptsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.ListReceipts is not implemented"))
}

func (UnimplementedReceiptServiceHandler) GetReceipt(context.Context, *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.GetReceipt is not implemented"))
}

func (UnimplementedReceiptServiceHandler) WatchReceipt(context.Context, *connect.Request[api.WatchReceiptRequest], *connect.ServerStream[api.WatchReceiptResponse]) error {
	return connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.WatchReceipt is not implemented"))
}

func (UnimplementedReceiptServiceHandler) DeleteReceipt(context.Context, *connect.Request[api.DeleteReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.DeleteReceipt is not implemented"))
}

func (UnimplementedReceiptServiceHandler) UpdateReceipt(context.Context, *connect.Request[api.UpdateReceiptRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.UpdateReceipt is not implemented"))
}

func (UnimplementedReceiptServiceHandler) AddItem(context.Context, *connect.Request[api.AddItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.AddItem is not implemented"))
}

func (UnimplementedReceiptServiceHandler) UpdateItem(context.Context, *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.UpdateItem is not implemented"))
}

func (UnimplementedReceiptServiceHandler) RemoveItem(context.Context, *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.RemoveItem is not implemented"))
}

func (UnimplementedReceiptServiceHandler) SplitItem(context.Context, *connect.Request[api.SplitItemRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.SplitItem is not implemented"))
}

func (UnimplementedReceiptServiceHandler) AddPerson(context.Context, *connect.Request[api.AddPersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.AddPerson is not implemented"))
}

func (UnimplementedReceiptServiceHandler) UpdatePerson(context.Context, *connect.Request[api.UpdatePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.UpdatePerson is not implemented"))
}

func (UnimplementedReceiptServiceHandler) SetPaid(context.Context, *connect.Request[api.SetPaidRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.SetPaid is not implemented"))
}

func (UnimplementedReceiptServiceHandler) RemovePerson(context.Context, *connect.Request[api.RemovePersonRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.RemovePerson is not implemented"))
}

func (UnimplementedReceiptServiceHandler) SetShare(context.Context, *connect.Request[api.SetShareRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.SetShare is not implemented"))
}

func (UnimplementedReceiptServiceHandler) SetCharge(context.Context, *connect.Request[api.SetChargeRequest]) (*connect.Response[api.MutationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("rece.v1.ReceiptService.SetCharge is not implemented"))
}
