// Package harvest 实现虚拟化主从网格的采集引擎。
//
// 虚拟化网格只在 DOM 中保留当前可见的一段行,想看到更多行必须触发网格自身的滚动。
// 引擎逐级滚动主网格与明细网格,按行 id 去重,用连续若干次"没有新行"来判断一级网格
// 已经读完,最后把明细行按主行汇总,与主行上报的期望合计做对账。
//
// 所有等待都是有界轮询(见 PollWaiter),引擎不依赖宿主页面的完成回调。
package harvest
