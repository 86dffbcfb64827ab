package parse

// sampleInvoice mirrors the text layer of a Chinese electronic VAT invoice.
const sampleInvoice = `电子发票（普通发票）
发票号码：25117000000123456789
开票日期：2025年03月01日
购 名称：武汉东湖学院 销 名称：济南某某科技有限公司
买 统一社会信用代码/纳税人识别号：52420000123406283N 售 统一社会信用代码/纳税人识别号：91420100717918134N
方 方
信 信
项目名称 规格型号 单 位 数 量 单 价 金 额 税率/征收率 税 额
*餐饮服务*餐费 无 次 1 94.34 94.34 6% 5.66
合 计 ¥94.34 ¥5.66
价税合计（大写） ⓧ壹佰元整 （小写）¥100.00
备
注
开票人：王丽丽
`
