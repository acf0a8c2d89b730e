package metadata

import (
	"errors"
	"fmt"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/node"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"go.uber.org/zap"
)

var ErrUnknownTemplate = errors.New("unknown workflow template")

// TemplateRegistry holds the canonical workflow templates. It is filled once
// at construction and never changes afterwards; every accessor hands out
// copies.
type TemplateRegistry interface {
	Get(name model.TemplateName) (*model.WorkflowTemplate, error)
	All() []model.WorkflowTemplate
	Instantiate(name model.TemplateName, userId string, userEmail string) (*model.Workflow, error)
}

type templateRegistryImpl struct {
	templates map[model.TemplateName]*model.Workflow
}

// NewTemplateRegistry loads and validates every template from storage. All
// of model.TemplateNames must be present.
func NewTemplateRegistry(storage TemplateStorage) (TemplateRegistry, error) {
	docs, err := storage.LoadTemplates()
	if err != nil {
		return nil, err
	}
	r := &templateRegistryImpl{templates: make(map[model.TemplateName]*model.Workflow, len(docs))}
	for _, name := range model.TemplateNames {
		doc, ok := docs[name]
		if !ok {
			return nil, fmt.Errorf("template %s: %w", name, ErrUnknownTemplate)
		}
		wf, err := model.Parse(doc)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		r.templates[name] = wf
		logger.Info("loaded workflow template", zap.String("template", string(name)), zap.Int("nodes", len(wf.Nodes)))
	}
	return r, nil
}

func (r *templateRegistryImpl) Get(name model.TemplateName) (*model.WorkflowTemplate, error) {
	wf, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", name, ErrUnknownTemplate)
	}
	c, err := wf.Clone()
	if err != nil {
		return nil, err
	}
	return &model.WorkflowTemplate{Name: name, Workflow: c}, nil
}

func (r *templateRegistryImpl) All() []model.WorkflowTemplate {
	all := make([]model.WorkflowTemplate, 0, len(r.templates))
	for _, name := range model.TemplateNames {
		t, err := r.Get(name)
		if err != nil {
			logger.Error("error copying workflow template", zap.String("template", string(name)), zap.Error(err))
			continue
		}
		all = append(all, *t)
	}
	return all
}

// Instantiate returns the user's copy of a template: {$.userId} and
// {$.userEmail} placeholders in node parameters, webhook ids, credentials and
// static data are substituted and the workflow is given its instance name.
func (r *templateRegistryImpl) Instantiate(name model.TemplateName, userId string, userEmail string) (*model.Workflow, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	wf := t.Workflow
	data := map[string]any{
		"userId":    userId,
		"userEmail": userEmail,
		"template":  string(name),
	}
	for i := range wf.Nodes {
		n := &wf.Nodes[i]
		params := node.NewParameters()
		for _, k := range n.Parameters.Keys() {
			v, _ := n.Parameters.Get(k)
			params.Set(k, util.ResolveValue(data, v))
		}
		n.Parameters = params
		if n.WebhookId != "" {
			n.WebhookId = util.ResolveValue(data, n.WebhookId).(string)
		}
		if n.Credentials != nil {
			n.Credentials = util.ResolveParams(data, n.Credentials)
		}
	}
	if wf.StaticData != nil {
		wf.StaticData = util.ResolveParams(data, wf.StaticData)
	}
	wf.Id = ""
	wf.Active = false
	wf.Name = model.InstanceName(name, userId)
	if err := model.Validate(wf); err != nil {
		return nil, err
	}
	return wf, nil
}
